package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fernwall/tenant-gateway/internal/core/domain"
)

// HealthHandler handles GET /health — liveness probe.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// ReadinessHandler handles GET /health/ready — readiness probe.
// The gateway has no external datastore; readiness means a configuration
// snapshot was loaded and contains at least one proxy route.
type ReadinessHandler struct {
	snapshot *domain.Snapshot
}

func NewReadinessHandler(snapshot *domain.Snapshot) *ReadinessHandler {
	return &ReadinessHandler{snapshot: snapshot}
}

type readinessResponse struct {
	Status  string `json:"status"`
	Routes  int    `json:"routes"`
	Tenants int    `json:"tenants"`
	Users   int    `json:"users"`
}

func (h *ReadinessHandler) Readiness(c echo.Context) error {
	status := "ok"
	httpStatus := http.StatusOK
	if h.snapshot == nil || len(h.snapshot.Proxy) == 0 {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	resp := readinessResponse{Status: status}
	if h.snapshot != nil {
		resp.Routes = len(h.snapshot.Proxy)
		resp.Tenants = len(h.snapshot.Tenants)
		resp.Users = len(h.snapshot.Users)
	}

	return c.JSON(httpStatus, resp)
}
