package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stylelab/platform/internal/api/middleware"
	"github.com/stylelab/platform/internal/core/ports"
)

// ctxClaims extracts the session claims injected by the Auth middleware.
// A missing subject means the route was mounted without the middleware.
func ctxClaims(c echo.Context) (*ports.SessionClaims, error) {
	claims, _ := c.Get(middleware.ContextClaims).(*ports.SessionClaims)
	if claims == nil || claims.UserID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}

// CookieConfig controls the session cookie written on register and login.
type CookieConfig struct {
	Name   string
	Secure bool
	Domain string
}

func (cc CookieConfig) name() string {
	if cc.Name == "" {
		return "access_token"
	}
	return cc.Name
}

func setAuthCookie(c echo.Context, cc CookieConfig, token string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     cc.name(),
		Value:    token,
		Path:     "/",
		Domain:   cc.Domain,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   cc.Secure,
		Expires:  expires,
	})
}

func clearAuthCookie(c echo.Context, cc CookieConfig) {
	c.SetCookie(&http.Cookie{
		Name:     cc.name(),
		Value:    "",
		Path:     "/",
		Domain:   cc.Domain,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   cc.Secure,
		MaxAge:   -1,
	})
}
