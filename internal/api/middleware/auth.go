package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/stylelab/platform/internal/api/metrics"
	"github.com/stylelab/platform/internal/core/domain"
	"github.com/stylelab/platform/internal/core/ports"
)

// Context keys set by Auth.
const (
	ContextClaims = "claims"
	ContextRole   = "role"
)

// TokenAuthenticator verifies a session token.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*ports.SessionClaims, error)
}

// TokenFromRequest returns the session token from the cookie named
// cookieName, falling back to an "Authorization: Bearer" header.
func TokenFromRequest(c echo.Context, cookieName string) string {
	if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Auth validates the session token and injects its claims into the context.
// Revoked tokens are rejected by the service.
func Auth(auth TokenAuthenticator, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := TokenFromRequest(c, cookieName)
			if token == "" {
				metrics.AuthRejectedTotal.WithLabelValues("missing_token").Inc()
				return domain.ErrUnauthenticated
			}

			claims, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidToken) || errors.Is(err, domain.ErrUnauthenticated) {
					metrics.AuthRejectedTotal.WithLabelValues("invalid_token").Inc()
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token").SetInternal(err)
				}
				return err
			}

			c.Set(ContextClaims, claims)
			c.Set(ContextRole, claims.Role)
			return next(c)
		}
	}
}
