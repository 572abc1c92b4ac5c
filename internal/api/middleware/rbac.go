package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/fernwall/tenant-gateway/internal/core/domain"
	"github.com/fernwall/tenant-gateway/internal/proxy"
)

// RequirePermission enforces that the bound identity holds the given action
// on the given resource, using the same authorization engine as the proxy
// pipeline. Must run after Auth.
func RequirePermission(engine *proxy.Engine, resource, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := IdentityFrom(c)
			if identity == nil {
				return domain.ErrMissingAuthHeader
			}
			if !engine.Allow(identity.Roles, resource, []string{action}) {
				return domain.ErrPermissionDenied
			}
			return next(c)
		}
	}
}
