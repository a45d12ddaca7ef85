package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"mahabharata-landing/internal/model"
	"mahabharata-landing/internal/service"
	"mahabharata-landing/internal/waitlist"
	"mahabharata-landing/pkg/logger"
)

// Messages shown by the landing page after a waitlist submission
const (
	WaitlistJoinedMessage   = "Thank you! You've been added to the waitlist."
	WaitlistRejectedMessage = "Oops! Something went wrong. Please try again later."
	WaitlistNetworkMessage  = "Network error. Please check your connection and try again."
)

// WaitlistHandler handles waitlist signups
type WaitlistHandler struct {
	waitlist *service.WaitlistService
	logger   *logger.Logger
}

// NewWaitlistHandler creates a new waitlist handler
func NewWaitlistHandler(svc *service.WaitlistService, log *logger.Logger) *WaitlistHandler {
	return &WaitlistHandler{
		waitlist: svc,
		logger:   log,
	}
}

// Join handles POST /api/v1/waitlist
func (h *WaitlistHandler) Join(w http.ResponseWriter, r *http.Request) {
	var entry model.WaitlistEntry
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&entry); err != nil {
		sendErrorResponse(w, CodeInvalidRequest, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	entry = service.NormalizeEntry(entry)
	if err := validate.Struct(entry); err != nil {
		sendErrorResponse(w, CodeInvalidRequest, validationMessage(err), http.StatusUnprocessableEntity)
		return
	}

	if err := h.waitlist.Join(r.Context(), entry); err != nil {
		if errors.Is(err, waitlist.ErrRejected) {
			sendErrorResponse(w, CodeWaitlistRejected, WaitlistRejectedMessage, http.StatusBadGateway)
			return
		}
		h.logger.ErrorContext(r.Context(), "Waitlist endpoint unreachable", "error", err)
		sendErrorResponse(w, CodeWaitlistRejected, WaitlistNetworkMessage, http.StatusServiceUnavailable)
		return
	}

	sendSuccessResponse(w, http.StatusOK, WaitlistJoinedMessage, nil)
}
