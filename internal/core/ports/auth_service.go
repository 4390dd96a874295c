package ports

import (
	"context"
	"time"

	"github.com/stylelab/platform/internal/core/domain"
)

// RegisterInput is the payload accepted by AuthService.Register.
type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	ReferredCode string // optional invitation code
}

// Session is an issued access token and the account it belongs to.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// SessionClaims are the verified contents of an access token.
type SessionClaims struct {
	UserID    string
	UID       int64
	Role      domain.Role
	JTI       string
	ExpiresAt time.Time
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	// Authenticate verifies a token and rejects revoked sessions.
	Authenticate(ctx context.Context, token string) (*SessionClaims, error)
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	Verify(ctx context.Context, token string) (*domain.User, error)
}
