package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/stylelab/platform/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors without leaking details to the client.
//   - Renders domain.APIError: {"error", "message", "statusCode"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		apiErr := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(apiErr.StatusCode)
			return
		}
		_ = c.JSON(apiErr.StatusCode, apiErr)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) *domain.APIError {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := fmt.Sprintf("%v", he.Message)
		if he.Code >= http.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg("http error")
		}
		return domain.NewAPIError(he.Code, msg)
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return domain.NewAPIError(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidReferral):
		return domain.NewAPIError(http.StatusBadRequest, "unknown referral code")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return domain.NewAPIError(http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrInvalidToken):
		return domain.NewAPIError(http.StatusUnauthorized, "invalid or expired token")
	case errors.Is(err, domain.ErrUnauthenticated):
		return domain.NewAPIError(http.StatusUnauthorized, "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		return domain.NewAPIError(http.StatusForbidden, "access forbidden")
	case errors.Is(err, domain.ErrRegistrationClosed):
		return domain.NewAPIError(http.StatusForbidden, "registration is closed")
	case errors.Is(err, domain.ErrUserNotFound):
		return domain.NewAPIError(http.StatusNotFound, "user not found")
	case errors.Is(err, domain.ErrUserExists):
		return domain.NewAPIError(http.StatusConflict, "user already exists")
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return &domain.APIError{
		Err:        domain.GenericErrorTitle,
		Message:    domain.GenericErrorMessage,
		StatusCode: http.StatusInternalServerError,
	}
}
