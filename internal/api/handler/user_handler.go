package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fernwall/tenant-gateway/internal/api/middleware"
	"github.com/fernwall/tenant-gateway/internal/core/domain"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

type userResponse struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	TenantID string   `json:"tenant_id"`
}

// Me returns the calling user's profile from the bound identity. Roles and
// tenant reflect the current configuration, not the token's claims.
//
// @Summary      Current user profile
// @Tags         users
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /api/v1/users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		return domain.ErrMissingAuthHeader
	}

	return c.JSON(http.StatusOK, userResponse{
		Username: identity.Subject,
		Roles:    identity.Roles,
		TenantID: identity.TenantID,
	})
}
