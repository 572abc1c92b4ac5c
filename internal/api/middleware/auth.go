package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/fernwall/tenant-gateway/internal/core/domain"
	"github.com/fernwall/tenant-gateway/internal/proxy"
)

const identityKey = "identity"

// Auth validates the bearer token, binds its claims against the
// configuration snapshot, and injects the bound identity into the context.
// It shares the pipeline's validator so the gateway's own API routes apply
// the exact same rules as proxied requests.
func Auth(validator *proxy.Validator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, err := validator.Bind(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}
			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

// IdentityFrom extracts the bound identity injected by Auth, or nil when the
// middleware did not run.
func IdentityFrom(c echo.Context) *domain.Identity {
	identity, _ := c.Get(identityKey).(*domain.Identity)
	return identity
}
