package ports

import (
	"context"
	"time"
)

// SessionStore tracks revoked session tokens by their jti.
type SessionStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Notifier delivers out-of-band tokens (verification, password reset).
type Notifier interface {
	SendVerification(ctx context.Context, email, token string) error
	SendPasswordReset(ctx context.Context, email, token string) error
}
