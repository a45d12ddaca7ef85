package handler

import (
	"net/http"
	"time"

	"mahabharata-landing/internal/config"
	"mahabharata-landing/internal/service"
	"mahabharata-landing/pkg/logger"
)

// ConnectionReporter reports the notifier connection state
type ConnectionReporter interface {
	GetConnectionStatus() map[string]interface{}
}

// HealthHandler handles health check requests
type HealthHandler struct {
	contributions *service.ContributionService
	notifier      ConnectionReporter
	config        *config.Config
	logger        *logger.Logger
	startTime     time.Time
}

// NewHealthHandler creates a new health handler; notifier may be nil
func NewHealthHandler(contributions *service.ContributionService, notifier ConnectionReporter, cfg *config.Config, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		contributions: contributions,
		notifier:      notifier,
		config:        cfg,
		logger:        log,
		startTime:     time.Now(),
	}
}

// CheckHealth handles GET /health
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	statusCode := http.StatusOK

	orders, err := h.contributions.CountActive(r.Context())
	if err != nil {
		h.logger.Error("Order store health check failed", "error", err)
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	notifications := map[string]interface{}{"enabled": false}
	if h.notifier != nil {
		notifications = h.notifier.GetConnectionStatus()
	}

	response := map[string]interface{}{
		"status": status,
		"gateway": map[string]interface{}{
			"create_order_url": h.config.Gateway.CreateOrderURL,
			"status_url":       h.config.Gateway.StatusURL,
		},
		"order_store": map[string]interface{}{
			"active_orders": orders,
		},
		"notifications": notifications,
		"uptime":        time.Since(h.startTime).String(),
		"timestamp":     time.Now().Format(time.RFC3339),
	}

	writeJSON(w, statusCode, response)
}
