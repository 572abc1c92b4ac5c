// Package proxy implements the gateway's request-processing pipeline:
// route resolution, token validation with claim binding against the
// configuration snapshot, role-based authorization, and upstream
// forwarding over a pooled connection.
//
// Every rejection is decided before any network call to the upstream; the
// pipeline never partially forwards a request.
package proxy

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fernwall/tenant-gateway/internal/api/metrics"
	"github.com/fernwall/tenant-gateway/internal/core/domain"
)

// Pipeline wires the pipeline components over one configuration snapshot.
type Pipeline struct {
	routes    *RouteTable
	validator *Validator
	engine    *Engine
	forwarder *Forwarder
	log       zerolog.Logger
}

func NewPipeline(snapshot *domain.Snapshot, secret string, forwarder *Forwarder, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		routes:    NewRouteTable(snapshot.Proxy),
		validator: NewValidator(secret, snapshot),
		engine:    NewEngine(snapshot.Roles),
		forwarder: forwarder,
		log:       log,
	}
}

// Validator exposes the pipeline's token validator for reuse by the
// gateway's own API routes.
func (p *Pipeline) Validator() *Validator { return p.validator }

// Engine exposes the authorization engine for reuse by the gateway's own
// API routes.
func (p *Pipeline) Engine() *Engine { return p.engine }

// Middleware returns the Echo pre-middleware carrying the pipeline. Paths
// that match no configured route fall through to the application router
// untouched. Register it with e.Pre so it runs before route matching.
func (p *Pipeline) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			route, ok := p.routes.Match(req.URL.Path)
			if !ok {
				return next(c)
			}

			identity, err := p.validator.Bind(req.Header.Get(echo.HeaderAuthorization))
			if err != nil {
				metrics.AuthRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
				p.log.Warn().
					Err(err).
					Str("route", route.Endpoint).
					Str("method", req.Method).
					Msg("request rejected")
				return err
			}

			resource := route.ResourceName()
			if !p.engine.Allow(identity.Roles, resource, RequiredActions(req.Method)) {
				metrics.AuthzDenialsTotal.WithLabelValues(resource).Inc()
				p.log.Warn().
					Str("subject", identity.Subject).
					Str("resource", resource).
					Str("method", req.Method).
					Msg("request denied")
				return domain.ErrPermissionDenied
			}

			return p.forwarder.Forward(c.Response(), req, route, identity.TenantID)
		}
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingAuthHeader):
		return "missing_header"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid_token"
	default:
		return "binding_failed"
	}
}
