package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheck pings one dependency. A nil error means healthy.
type HealthCheck struct {
	Name  string
	Ping func(ctx context.Context) error
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthHandler reports the health of the service and its dependencies
type HealthHandler struct {
	checks  []HealthCheck
	timeout time.Duration
	log     *zap.Logger
}

// NewHealthHandler creates a HealthHandler running the given checks
func NewHealthHandler(log *zap.Logger, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		timeout: 2 * time.Second,
		log:     log,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{Status: "healthy", Checks: make(map[string]string, len(h.checks))}
	code := http.StatusOK

	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			h.log.Warn("health check failed", zap.String("check", check.Name), zap.Error(err))
			resp.Checks[check.Name] = "unhealthy"
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[check.Name] = "healthy"
	}

	c.JSON(code, resp)
}
