package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Xreatlabs/Helium-sub000/internal/models"
)

// Pinger is anything the health check can reach with a round trip.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PanelHealth interface {
	HealthCheck(ctx context.Context) models.HealthStatus
}

// MetricsHandler handles metrics and health endpoints
type MetricsHandler struct {
	metrics http.Handler
	db      Pinger
	redis   Pinger
	panel   PanelHealth
	logger  *zap.Logger
}

func NewMetricsHandler(metrics http.Handler, db, redis Pinger, panel PanelHealth, logger *zap.Logger) *MetricsHandler {
	return &MetricsHandler{
		metrics: metrics,
		db:      db,
		redis:   redis,
		panel:   panel,
		logger:  logger,
	}
}

// GetMetrics serves the Prometheus exposition
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// HealthCheck checks the health of the gateway and its dependencies
func (h *MetricsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := &HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Services:  make(map[string]string),
	}

	check := func(name string, err error) {
		if err != nil {
			health.Services[name] = "unhealthy: " + err.Error()
			health.Status = "degraded"
			h.logger.Warn("health check failed", zap.String("service", name), zap.Error(err))
			return
		}
		health.Services[name] = "healthy"
	}

	check("postgresql", h.db.Ping(ctx))
	check("redis", h.redis.Ping(ctx))

	panel := h.panel.HealthCheck(ctx)
	if panel.Status == models.Healthy {
		health.Services["pterodactyl"] = "healthy"
	} else {
		health.Services["pterodactyl"] = "unhealthy: " + panel.Error
		health.Status = "degraded"
		h.logger.Warn("health check failed", zap.String("service", "pterodactyl"), zap.String("error", panel.Error))
	}

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, health)
}
