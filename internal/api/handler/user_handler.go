package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stylelab/platform/internal/core/domain"
	"github.com/stylelab/platform/internal/core/ports"
)

// UserHandler serves the /users/me routes.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// UpdateProfile edits the caller's profile.
//
// @Summary      Update profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  domain.PublicUser
// @Failure      400   {object}  domain.APIError
// @Failure      401   {object}  domain.APIError
// @Router       /users/me [patch]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.service.UpdateProfile(c.Request().Context(), claims.UserID, toUpdateProfileInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.Public())
}

// LinkSocialLogin attaches an identity provider to the caller's account.
//
// @Summary      Link a social login
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Security     BearerAuth
// @Param        body  body      socialLoginRequest  true  "Provider and token"
// @Success      200   {object}  domain.PublicUser
// @Failure      400   {object}  domain.APIError
// @Router       /users/me/social-logins [post]
func (h *UserHandler) LinkSocialLogin(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req socialLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.service.LinkSocialLogin(c.Request().Context(), claims.UserID, ports.LinkSocialLoginInput{
		Name:  req.Name,
		Token: req.Token,
		Meta:  req.Meta,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.Public())
}

// UnlinkSocialLogin detaches an identity provider.
//
// @Summary      Unlink a social login
// @Tags         users
// @Produce      json
// @Security     CookieAuth
// @Security     BearerAuth
// @Param        name  path      string  true  "Provider name (Google, Facebook)"
// @Success      200   {object}  domain.PublicUser
// @Router       /users/me/social-logins/{name} [delete]
func (h *UserHandler) UnlinkSocialLogin(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	user, err := h.service.UnlinkSocialLogin(c.Request().Context(), claims.UserID, c.Param("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.Public())
}

// Referrals lists the accounts created from the caller's invitations.
//
// @Summary      List referrals
// @Tags         users
// @Produce      json
// @Security     CookieAuth
// @Security     BearerAuth
// @Success      200  {array}  domain.PublicUser
// @Router       /users/me/referrals [get]
func (h *UserHandler) Referrals(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	users, err := h.service.Referrals(c.Request().Context(), claims.UserID)
	if err != nil {
		return err
	}
	if users == nil {
		users = []domain.PublicUser{}
	}
	return c.JSON(http.StatusOK, users)
}
