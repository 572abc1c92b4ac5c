package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fernwall/tenant-gateway/internal/core/domain"
)

// errorResponse is the canonical error envelope for every error the gateway
// produces itself; relayed upstream responses pass through untouched.
type errorResponse struct {
	Detail string `json:"detail"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps pipeline rejection kinds to their HTTP status codes.
//   - Collapses all claim-binding failures into one 401 message so callers
//     cannot probe which check failed; the precise reason is logged where
//     the rejection happened.
//   - Logs unexpected errors internally without leaking details.
//   - Renders a consistent JSON envelope: {"detail": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Detail: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrMissingAuthHeader):
		return http.StatusUnauthorized, "Missing or invalid Authorization header"
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid or expired token"
	case errors.Is(err, domain.ErrCredentialBinding):
		return http.StatusUnauthorized, "Could not validate credentials"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Incorrect username or password"
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden, "Not enough permissions"
	case errors.Is(err, domain.ErrUpstreamUnreachable):
		return http.StatusBadGateway, "Bad Gateway: Unable to connect to the upstream server"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Request().URL.Path).
		Msg("unhandled error")

	return http.StatusInternalServerError, "Internal server error"
}
