package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stylelab/platform/internal/core/ports"
)

type AdminHandler struct {
	service ports.UserService
}

func NewAdminHandler(service ports.UserService) *AdminHandler {
	return &AdminHandler{service: service}
}

// ListUsers returns a paginated list of accounts.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     CookieAuth
// @Security     BearerAuth
// @Param        page   query     int     false  "Page number (default 1, max 10000)"
// @Param        limit  query     int     false  "Page size (default 20, max 100)"
// @Param        role   query     string  false  "Filter by role (admin, student)"
// @Success      200    {object}  listUsersResponse
// @Failure      400    {object}  domain.APIError
// @Failure      403    {object}  domain.APIError
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	var q listUsersQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	result, err := h.service.ListUsers(c.Request().Context(), ports.ListUsersInput{
		Role:  q.Role,
		Page:  q.Page,
		Limit: q.Limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(result))
}
