package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/stylelab/platform/internal/api/metrics"
	"github.com/stylelab/platform/internal/api/middleware"
	"github.com/stylelab/platform/internal/core/domain"
	"github.com/stylelab/platform/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	cookie      CookieConfig
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, cookie CookieConfig, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie, log: log}
}

// Register creates a new account and opens a session for it.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Name, e-mail, password and optional referral code"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  domain.APIError
// @Failure      403   {object}  domain.APIError
// @Failure      409   {object}  domain.APIError
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, err := h.authService.Register(c.Request().Context(), toRegisterInput(req))
	if err != nil {
		countAttempt("register", err)
		return err
	}
	countAttempt("register", nil)

	setAuthCookie(c, h.cookie, session.Token, session.ExpiresAt)
	return c.JSON(http.StatusCreated, toAuthResponse(session))
}

// Login authenticates a user and opens a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  domain.APIError
// @Failure      401   {object}  domain.APIError
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		countAttempt("login", err)
		return err
	}
	countAttempt("login", nil)

	setAuthCookie(c, h.cookie, session.Token, session.ExpiresAt)
	return c.JSON(http.StatusCreated, toAuthResponse(session))
}

// Me returns the account behind the current session.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     CookieAuth
// @Security     BearerAuth
// @Success      200  {object}  domain.PublicUser
// @Failure      401  {object}  domain.APIError
// @Router       /auth/user [get]
func (h *AuthHandler) Me(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	user, err := h.authService.CurrentUser(c.Request().Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// The account was removed after the token was issued.
			return domain.ErrUnauthenticated
		}
		return err
	}
	return c.JSON(http.StatusOK, user.Public())
}

// Logout revokes the current session and clears the cookie. It always
// succeeds from the client's point of view.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /auth/logout [get]
func (h *AuthHandler) Logout(c echo.Context) error {
	token := middleware.TokenFromRequest(c, h.cookie.name())
	if token != "" {
		if err := h.authService.Logout(c.Request().Context(), token); err != nil {
			h.log.Warn().Err(err).Msg("session revocation failed")
		} else {
			metrics.SessionsRevokedTotal.Inc()
		}
	}
	clearAuthCookie(c, h.cookie)
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// ForgotPassword issues a password reset token. The response does not reveal
// whether the address is registered.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account e-mail"
// @Success      202   {object}  messageResponse
// @Failure      400   {object}  domain.APIError
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.authService.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		h.log.Error().Err(err).Msg("password reset request failed")
	}
	return c.JSON(http.StatusAccepted, messageResponse{Message: "if the address is registered, a reset link has been sent"})
}

// ResetPassword consumes a reset token and sets a new password.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Reset token and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  domain.APIError
// @Failure      401   {object}  domain.APIError
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.authService.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password updated"})
}

// Verify consumes an e-mail verification token.
//
// @Summary      Verify e-mail
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyRequest  true  "Verification token"
// @Success      200   {object}  domain.PublicUser
// @Failure      400   {object}  domain.APIError
// @Failure      401   {object}  domain.APIError
// @Router       /auth/verify [post]
func (h *AuthHandler) Verify(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	user, err := h.authService.Verify(c.Request().Context(), req.Token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.Public())
}

func countAttempt(action string, err error) {
	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidReferral),
		errors.Is(err, domain.ErrRegistrationClosed):
		result = "rejected"
	default:
		result = "error"
	}
	metrics.AuthAttemptsTotal.WithLabelValues(action, result).Inc()
}
