package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/stylelab/platform/internal/api/middleware"
	"github.com/stylelab/platform/internal/core/domain"
	"github.com/stylelab/platform/internal/core/ports"
)

type stubAuthService struct {
	registerFn    func(ctx context.Context, in ports.RegisterInput) (*ports.Session, error)
	loginFn       func(ctx context.Context, email, password string) (*ports.Session, error)
	currentUserFn func(ctx context.Context, userID string) (*domain.User, error)
	logoutFn      func(ctx context.Context, token string) error
	resetReqFn    func(ctx context.Context, email string) error
	resetFn       func(ctx context.Context, token, password string) error
	verifyFn      func(ctx context.Context, token string) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.Session, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Authenticate(context.Context, string) (*ports.SessionClaims, error) {
	return nil, domain.ErrUnauthenticated
}

func (s *stubAuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.currentUserFn(ctx, userID)
}

func (s *stubAuthService) Logout(ctx context.Context, token string) error {
	return s.logoutFn(ctx, token)
}

func (s *stubAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	return s.resetReqFn(ctx, email)
}

func (s *stubAuthService) ResetPassword(ctx context.Context, token, password string) error {
	return s.resetFn(ctx, token, password)
}

func (s *stubAuthService) Verify(ctx context.Context, token string) (*domain.User, error) {
	return s.verifyFn(ctx, token)
}

type stubUserService struct {
	updateFn    func(ctx context.Context, userID string, in ports.UpdateProfileInput) (*domain.User, error)
	linkFn      func(ctx context.Context, userID string, in ports.LinkSocialLoginInput) (*domain.User, error)
	unlinkFn    func(ctx context.Context, userID, provider string) (*domain.User, error)
	referralsFn func(ctx context.Context, userID string) ([]domain.PublicUser, error)
	listFn      func(ctx context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error)
}

func (s *stubUserService) UpdateProfile(ctx context.Context, userID string, in ports.UpdateProfileInput) (*domain.User, error) {
	return s.updateFn(ctx, userID, in)
}

func (s *stubUserService) LinkSocialLogin(ctx context.Context, userID string, in ports.LinkSocialLoginInput) (*domain.User, error) {
	return s.linkFn(ctx, userID, in)
}

func (s *stubUserService) UnlinkSocialLogin(ctx context.Context, userID, provider string) (*domain.User, error) {
	return s.unlinkFn(ctx, userID, provider)
}

func (s *stubUserService) Referrals(ctx context.Context, userID string) ([]domain.PublicUser, error) {
	return s.referralsFn(ctx, userID)
}

func (s *stubUserService) ListUsers(ctx context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	return s.listFn(ctx, in)
}

func sampleUser() *domain.User {
	return &domain.User{
		ID:           "64b000000000000000000001",
		UID:          1,
		FirstName:    "Alice",
		LastName:     "Liddell",
		Username:     "alice",
		Email:        "alice@example.com",
		Role:         domain.RoleStudent,
		UserLevel:    domain.LevelBeginner,
		ReferralCode: "ABCD2345",
		PasswordHash: "$2a$10$hash",
		SocialLogins: []domain.SocialLogin{{Name: domain.ProviderGoogle, Token: "google-secret"}},
	}
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func newJSONContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withClaims(c echo.Context, userID string, role domain.Role) {
	c.Set(middleware.ContextClaims, &ports.SessionClaims{UserID: userID, UID: 1, Role: role, JTI: "jti-1"})
	c.Set(middleware.ContextRole, role)
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}
