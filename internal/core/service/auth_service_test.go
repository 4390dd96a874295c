package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/stylelab/platform/internal/core/domain"
	"github.com/stylelab/platform/internal/core/ports"
)

type authFixture struct {
	repo     *stubUserRepo
	sessions *stubSessions
	settings *stubSettings
	notifier *stubNotifier
	svc      *AuthService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		repo:     newStubUserRepo(),
		sessions: newStubSessions(),
		settings: &stubSettings{},
		notifier: newStubNotifier(),
	}
	f.svc = NewAuthService(AuthDeps{
		Users:    f.repo,
		Sessions: f.sessions,
		Settings: f.settings,
		Notifier: f.notifier,
	}, "secret", time.Hour, zerolog.Nop())
	return f
}

func register(t *testing.T, svc *AuthService, name, email, password, referred string) *ports.Session {
	t.Helper()
	sess, err := svc.Register(context.Background(), ports.RegisterInput{
		Name: name, Email: email, Password: password, ReferredCode: referred,
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return sess
}

func TestAuthService_Register_Success(t *testing.T) {
	f := newAuthFixture()

	sess := register(t, f.svc, "Alice Liddell", " Alice@Example.com ", "pass123", "")
	user := sess.User
	if user.Email != "alice@example.com" || user.Username != "alice" {
		t.Fatalf("unexpected identity: %+v", user)
	}
	if user.FirstName != "Alice" || user.LastName != "Liddell" {
		t.Fatalf("unexpected name split: %q %q", user.FirstName, user.LastName)
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Role != domain.RoleStudent || user.UserLevel != domain.LevelBeginner {
		t.Fatalf("unexpected defaults: %s %s", user.Role, user.UserLevel)
	}
	if user.UID != 1 {
		t.Fatalf("expected uid 1, got %d", user.UID)
	}
	if len(user.ReferralCode) != referralLength {
		t.Fatalf("expected referral code, got %q", user.ReferralCode)
	}
	if user.ReferredCode != "" {
		t.Fatalf("expected no referred code, got %q", user.ReferredCode)
	}
	if sess.Token == "" || sess.ExpiresAt.IsZero() {
		t.Fatalf("expected an issued session")
	}
	if f.notifier.verifications["alice@example.com"] == "" {
		t.Fatalf("expected a verification token to be sent")
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, ports.RegisterInput{Name: "A B", Email: "", Password: "x"}); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := f.svc.Register(ctx, ports.RegisterInput{Name: "Cher", Email: "c@example.com", Password: "x"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for single-word name, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	f := newAuthFixture()

	register(t, f.svc, "Bob Marley", "bob@example.com", "pass", "")
	_, err := f.svc.Register(context.Background(), ports.RegisterInput{Name: "Bob Dylan", Email: "BOB@example.com", Password: "pass2"})
	if err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Register_WithReferral(t *testing.T) {
	f := newAuthFixture()

	inviter := register(t, f.svc, "Carol King", "carol@example.com", "pass", "").User
	invitee := register(t, f.svc, "Dan Brown", "dan@example.com", "pass", inviter.ReferralCode).User

	if invitee.ReferredCode != inviter.ReferralCode {
		t.Fatalf("expected referred code %q, got %q", inviter.ReferralCode, invitee.ReferredCode)
	}
	if invitee.ReferralCode == inviter.ReferralCode {
		t.Fatalf("expected a fresh referral code for the invitee")
	}
}

func TestAuthService_Register_UnknownReferral(t *testing.T) {
	f := newAuthFixture()

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Name: "Eve Online", Email: "eve@example.com", Password: "pass", ReferredCode: "NOPE2345",
	})
	if err != domain.ErrInvalidReferral {
		t.Fatalf("expected ErrInvalidReferral, got %v", err)
	}
}

func TestAuthService_Register_RetriesReferralCollision(t *testing.T) {
	f := newAuthFixture()
	f.repo.collisions = 2

	sess := register(t, f.svc, "Fay Wray", "fay@example.com", "pass", "")
	if sess.User.ReferralCode == "" {
		t.Fatalf("expected a referral code after retries")
	}

	f.repo.collisions = maxReferralAttempts
	_, err := f.svc.Register(context.Background(), ports.RegisterInput{Name: "Gus Grissom", Email: "gus@example.com", Password: "pass"})
	if !errors.Is(err, domain.ErrDuplicateReferral) {
		t.Fatalf("expected ErrDuplicateReferral after %d attempts, got %v", maxReferralAttempts, err)
	}
}

func TestAuthService_Register_Closed(t *testing.T) {
	f := newAuthFixture()
	f.settings.current = &domain.SiteSettings{RegistrationOpen: false}

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{Name: "Hal Jordan", Email: "hal@example.com", Password: "pass"})
	if err != domain.ErrRegistrationClosed {
		t.Fatalf("expected ErrRegistrationClosed, got %v", err)
	}
}

func TestAuthService_Register_SettingsErrorDoesNotBlock(t *testing.T) {
	f := newAuthFixture()
	f.settings.err = errors.New("mongo down")

	register(t, f.svc, "Ida Wells", "ida@example.com", "pass", "")
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newAuthFixture()
	register(t, f.svc, "Jo March", "jo@example.com", "s3cret", "")

	sess, err := f.svc.Login(context.Background(), "JO@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if sess.User == nil || sess.User.Username != "jo" {
		t.Fatalf("unexpected user: %+v", sess.User)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(sess.Token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["role"] != string(domain.RoleStudent) {
		t.Fatalf("expected role %s, got %v", domain.RoleStudent, claims["role"])
	}
	if claims["sub"] != sess.User.ID || claims["jti"] == "" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	f := newAuthFixture()
	register(t, f.svc, "Kim Possible", "kim@example.com", "goodpass", "")

	if _, err := f.svc.Login(context.Background(), "kim@example.com", "badpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	f := newAuthFixture()

	if _, err := f.svc.Login(context.Background(), "ghost@example.com", "pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_AuthenticateAndLogout(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	sess := register(t, f.svc, "Lou Reed", "lou@example.com", "pass", "")

	claims, err := f.svc.Authenticate(ctx, sess.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if claims.UserID != sess.User.ID || claims.UID != sess.User.UID || claims.Role != domain.RoleStudent {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if err := f.svc.Logout(ctx, sess.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	ttl, ok := f.sessions.revoked[claims.JTI]
	if !ok || ttl <= 0 || ttl > time.Hour {
		t.Fatalf("expected jti revoked with a positive ttl, got %v %v", ok, ttl)
	}

	if _, err := f.svc.Authenticate(ctx, sess.Token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}
}

func TestAuthService_Authenticate_Rejects(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	if _, err := f.svc.Authenticate(ctx, ""); err != domain.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := f.svc.Authenticate(ctx, "not-a-token"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	other := NewAuthService(AuthDeps{Users: f.repo}, "other-secret", time.Hour, zerolog.Nop())
	sess := register(t, other, "Max Ernst", "max@example.com", "pass", "")
	if _, err := f.svc.Authenticate(ctx, sess.Token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected foreign token to be rejected, got %v", err)
	}

	f.svc.now = func() time.Time { return time.Now().UTC().Add(-2 * time.Hour) }
	expired := register(t, f.svc, "Ned Kelly", "ned@example.com", "pass", "")
	if _, err := f.svc.Authenticate(ctx, expired.Token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestAuthService_Authenticate_StoreError(t *testing.T) {
	f := newAuthFixture()
	sess := register(t, f.svc, "Oz Wizard", "oz@example.com", "pass", "")
	f.sessions.err = errors.New("redis down")

	_, err := f.svc.Authenticate(context.Background(), sess.Token)
	if err == nil || errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected an infrastructure error, got %v", err)
	}
}

func TestAuthService_Logout_IgnoresBadTokens(t *testing.T) {
	f := newAuthFixture()

	for _, tok := range []string{"", "garbage"} {
		if err := f.svc.Logout(context.Background(), tok); err != nil {
			t.Fatalf("logout(%q): %v", tok, err)
		}
	}
	if len(f.sessions.revoked) != 0 {
		t.Fatalf("nothing should be revoked")
	}
}

func TestAuthService_PasswordReset(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	register(t, f.svc, "Pam Beesly", "pam@example.com", "oldpass", "")

	if err := f.svc.RequestPasswordReset(ctx, "pam@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	token := f.notifier.resets["pam@example.com"]
	if token == "" {
		t.Fatalf("expected a reset token to be issued")
	}

	if err := f.svc.ResetPassword(ctx, "wrong", "newpass"); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if err := f.svc.ResetPassword(ctx, token, "newpass"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := f.svc.Login(ctx, "pam@example.com", "oldpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("old password should no longer work, got %v", err)
	}
	if _, err := f.svc.Login(ctx, "pam@example.com", "newpass"); err != nil {
		t.Fatalf("new password should work: %v", err)
	}
	if err := f.svc.ResetPassword(ctx, token, "again"); err != domain.ErrInvalidToken {
		t.Fatalf("reset token should be single use, got %v", err)
	}
}

func TestAuthService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	f := newAuthFixture()

	if err := f.svc.RequestPasswordReset(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("expected silent success, got %v", err)
	}
	if len(f.notifier.resets) != 0 {
		t.Fatalf("no reset should be sent")
	}
}

func TestAuthService_Verify(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	register(t, f.svc, "Quinn Fabray", "quinn@example.com", "pass", "")
	token := f.notifier.verifications["quinn@example.com"]

	user, err := f.svc.Verify(ctx, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !user.IsVerified || user.VerificationToken != "" {
		t.Fatalf("expected verified user with cleared token: %+v", user)
	}
	if _, err := f.svc.Verify(ctx, token); err != domain.ErrInvalidToken {
		t.Fatalf("verification token should be single use, got %v", err)
	}
}
