package handler

import (
	"net/http"
	"strconv"

	"mahabharata-landing/internal/service"
	"mahabharata-landing/pkg/logger"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// OrdersHandler serves the operator order listing
type OrdersHandler struct {
	contributions *service.ContributionService
	logger        *logger.Logger
}

// NewOrdersHandler creates a new orders handler
func NewOrdersHandler(contributions *service.ContributionService, log *logger.Logger) *OrdersHandler {
	return &OrdersHandler{
		contributions: contributions,
		logger:        log,
	}
}

// List handles GET /api/v1/orders
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			sendErrorResponse(w, CodeInvalidRequest, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxListLimit)
	}

	orders, err := h.contributions.ListContributions(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list orders", "error", err)
		sendErrorResponse(w, CodeInternal, "Failed to retrieve orders", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Orders list retrieved", "total", len(orders))
	sendSuccessResponse(w, http.StatusOK, "Orders retrieved successfully", orders)
}
