package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/stylelab/platform/internal/core/domain"
	"github.com/stylelab/platform/internal/core/ports"
)

const maxReferralAttempts = 3

// AuthService implements registration, login and the session lifecycle.
type AuthService struct {
	users     ports.UserRepository
	sessions  ports.SessionStore
	settings  ports.SettingsRepository
	notifier  ports.Notifier
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

// AuthDeps groups the collaborators of AuthService. Settings and Notifier
// are optional.
type AuthDeps struct {
	Users    ports.UserRepository
	Sessions ports.SessionStore
	Settings ports.SettingsRepository
	Notifier ports.Notifier
}

func NewAuthService(deps AuthDeps, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		users:     deps.Users,
		sessions:  deps.Sessions,
		settings:  deps.Settings,
		notifier:  deps.Notifier,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an account and opens a session for it.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.Session, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	first, last, err := splitName(in.Name)
	if err != nil {
		return nil, err
	}

	if err := s.checkRegistrationOpen(ctx); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	referred := strings.TrimSpace(in.ReferredCode)
	if referred != "" {
		if _, err := s.users.FindByReferralCode(ctx, referred); err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, domain.ErrInvalidReferral
			}
			return nil, fmt.Errorf("register: lookup referral: %w", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	uid, err := s.users.NextUID(ctx)
	if err != nil {
		return nil, fmt.Errorf("register: next uid: %w", err)
	}
	verification, err := generateSecret()
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &domain.User{
		UID:               uid,
		FirstName:         first,
		LastName:          last,
		Username:          usernameFromEmail(email),
		Email:             email,
		Role:              domain.RoleStudent,
		UserLevel:         domain.LevelBeginner,
		ReferredCode:      referred,
		PasswordHash:      string(hash),
		VerificationToken: verification,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	created, err := s.createWithReferralCode(ctx, user)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.SendVerification(ctx, created.Email, verification); err != nil {
			s.log.Warn().Err(err).Str("user_id", created.ID).Msg("failed to send verification")
		}
	}

	s.log.Info().Str("user_id", created.ID).Int64("uid", created.UID).Bool("referred", referred != "").Msg("user registered")
	return s.openSession(created)
}

// createWithReferralCode assigns a fresh referral code, retrying when the
// store reports a collision.
func (s *AuthService) createWithReferralCode(ctx context.Context, user *domain.User) (*domain.User, error) {
	for attempt := 1; ; attempt++ {
		code, err := generateReferralCode()
		if err != nil {
			return nil, err
		}
		user.ReferralCode = code

		created, err := s.users.Create(ctx, user)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, domain.ErrDuplicateReferral) || attempt >= maxReferralAttempts {
			return nil, err
		}
		s.log.Debug().Int("attempt", attempt).Msg("referral code collision, retrying")
	}
}

func (s *AuthService) checkRegistrationOpen(ctx context.Context) error {
	if s.settings == nil {
		return nil
	}
	settings, err := s.settings.Get(ctx)
	switch {
	case errors.Is(err, domain.ErrSettingsNotFound):
		return nil
	case err != nil:
		s.log.Warn().Err(err).Msg("settings lookup failed, assuming registration open")
		return nil
	case !settings.RegistrationOpen:
		return domain.ErrRegistrationClosed
	}
	return nil
}

// Login checks credentials and opens a session. Unknown e-mails and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.openSession(user)
}

func (s *AuthService) openSession(user *domain.User) (*ports.Session, error) {
	token, exp, err := signSession(s.jwtSecret, user, s.now(), s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &ports.Session{Token: token, ExpiresAt: exp, User: user}, nil
}

// Authenticate verifies token and rejects sessions revoked by Logout.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*ports.SessionClaims, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	claims, err := parseSession(s.jwtSecret, token)
	if err != nil {
		return nil, err
	}
	if s.sessions != nil {
		revoked, err := s.sessions.IsRevoked(ctx, claims.JTI)
		if err != nil {
			return nil, fmt.Errorf("authenticate: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: revoked", domain.ErrInvalidToken)
		}
	}
	return claims, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

// Logout revokes token until it would have expired. Missing, malformed or
// already expired tokens need no revocation.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" || s.sessions == nil {
		return nil
	}
	claims, err := parseSession(s.jwtSecret, token)
	if err != nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.sessions.Revoke(ctx, claims.JTI, ttl); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Str("user_id", claims.UserID).Msg("session revoked")
	return nil
}

// RequestPasswordReset issues a reset token. Unknown e-mails are ignored so
// the endpoint does not reveal which addresses are registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Debug().Msg("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("request reset: %w", err)
	}

	token, err := generateSecret()
	if err != nil {
		return err
	}
	user.ResetPasswordToken = token
	user.UpdatedAt = s.now()
	if _, err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("request reset: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.SendPasswordReset(ctx, user.Email, token); err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to send password reset")
		}
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the password hash.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" {
		return domain.ErrInvalidToken
	}
	if password == "" {
		return domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidToken
		}
		return fmt.Errorf("reset password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.ResetPasswordToken = ""
	user.UpdatedAt = s.now()
	if _, err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Msg("password reset")
	return nil
}

// Verify consumes a verification token and marks the account verified.
func (s *AuthService) Verify(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}
	user, err := s.users.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("verify: %w", err)
	}

	user.IsVerified = true
	user.VerificationToken = ""
	user.UpdatedAt = s.now()
	return s.users.Update(ctx, user)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// splitName takes the first word as the first name and the rest as the last
// name; both are required by the user schema.
func splitName(name string) (string, string, error) {
	parts := strings.Fields(name)
	if len(parts) < 2 {
		return "", "", fmt.Errorf("%w: name must include first and last name", domain.ErrValidation)
	}
	return parts[0], strings.Join(parts[1:], " "), nil
}

func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
