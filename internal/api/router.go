package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/fernwall/tenant-gateway/internal/api/handler"
	"github.com/fernwall/tenant-gateway/internal/api/middleware"
	"github.com/fernwall/tenant-gateway/internal/core/domain"
	"github.com/fernwall/tenant-gateway/internal/core/service"
	"github.com/fernwall/tenant-gateway/internal/infrastructure/http/handlers"
	"github.com/fernwall/tenant-gateway/internal/pkg/config"
	"github.com/fernwall/tenant-gateway/internal/proxy"
)

// NewRouter builds and returns the Echo instance with the proxy pipeline
// and all application routes registered. The pipeline runs as
// pre-middleware: proxied paths never reach Echo's router, everything else
// falls through to it.
func NewRouter(settings *config.Settings, snapshot *domain.Snapshot, client proxy.Doer, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	forwarder := proxy.NewForwarder(client, settings.Upstream.Timeout, log)
	pipeline := proxy.NewPipeline(snapshot, settings.JWTSecret, forwarder, log)

	// --- Pre-routing middleware ---
	// Recover and RequestID are registered with Pre so they also cover
	// proxied requests, which bypass the router entirely.
	e.Pre(echomiddleware.Recover())
	e.Pre(echomiddleware.RequestID())
	e.Pre(pipeline.Middleware())

	// --- Application middleware ---
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("gateway"))
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Dependencies ---
	tokenTTL := time.Duration(settings.TokenExpireMinutes) * time.Minute
	authService := service.NewAuthService(snapshot, settings.JWTSecret, tokenTTL)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler()
	authMiddleware := middleware.Auth(pipeline.Validator())

	// --- API routes ---
	v1 := e.Group("/api/v1")
	v1.POST("/auth/login", authHandler.Login)
	v1.GET("/users/me", userHandler.Me,
		authMiddleware,
		middleware.RequirePermission(pipeline.Engine(), "users", "read"),
	)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	readinessHandler := handlers.NewReadinessHandler(snapshot)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness)  // readiness – is the snapshot loaded?

	return e
}
