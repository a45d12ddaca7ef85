package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"mahabharata-landing/internal/model"
	"mahabharata-landing/internal/service"
	"mahabharata-landing/pkg/logger"
)

const maxBodyBytes = 1 << 16

// ContributionHandler handles contribution and order status requests
type ContributionHandler struct {
	contributions *service.ContributionService
	poller        *service.StatusPoller
	logger        *logger.Logger
}

// NewContributionHandler creates a new contribution handler
func NewContributionHandler(contributions *service.ContributionService, poller *service.StatusPoller, log *logger.Logger) *ContributionHandler {
	return &ContributionHandler{
		contributions: contributions,
		poller:        poller,
		logger:        log,
	}
}

// Create handles POST /api/v1/contributions
func (h *ContributionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ContributionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		sendErrorResponse(w, CodeInvalidRequest, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		sendErrorResponse(w, CodeInvalidRequest, validationMessage(err), http.StatusUnprocessableEntity)
		return
	}
	if req.RedirectURL == "" {
		req.RedirectURL = originRedirect(r)
	}

	contribution, err := h.contributions.CreateContribution(r.Context(), req)
	if err != nil {
		h.fail(w, r, "Failed to create contribution", err)
		return
	}

	sendSuccessResponse(w, http.StatusCreated, "Contribution order created", contribution)
}

// Get handles GET /api/v1/contributions/{orderID}
func (h *ContributionHandler) Get(w http.ResponseWriter, r *http.Request) {
	contribution, err := h.contributions.GetContribution(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		h.fail(w, r, "Failed to load contribution", err)
		return
	}
	sendSuccessResponse(w, http.StatusOK, "Contribution found", contribution)
}

// Status handles GET /api/v1/contributions/{orderID}/status. With ?wait=
// it polls until the order completes or the wait elapses.
func (h *ContributionHandler) Status(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var wait time.Duration
	if raw := r.URL.Query().Get("wait"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			sendErrorResponse(w, CodeInvalidRequest, "wait must be a duration such as 30s", http.StatusBadRequest)
			return
		}
		wait = d
	}

	var (
		res model.StatusResult
		err error
	)
	if wait > 0 {
		res, err = h.poller.WaitForCompletion(r.Context(), orderID, wait)
	} else {
		res, err = h.poller.CheckOnce(r.Context(), orderID)
	}

	switch {
	case errors.Is(err, context.Canceled):
		return
	case err != nil && !errors.Is(err, service.ErrPollTimeout):
		h.fail(w, r, "Failed to check order status", err)
		return
	case res.Err != nil:
		// no usable gateway answer, even after waiting
		h.fail(w, r, "Order status check failed", res.Err)
		return
	}

	resp := model.StatusResponse{
		OrderID:       orderID,
		Completed:     res.Completed(),
		GatewayStatus: res.GatewayStatus,
		Result:        res.Payload,
		Reason:        res.Reason,
	}
	message := "Payment not completed yet"
	if resp.Completed {
		message = "Payment completed"
	} else if service.IsTerminalFailure(res) {
		message = "Payment failed"
	}
	sendSuccessResponse(w, http.StatusOK, message, resp)
}

// LegacyCreateOrder handles POST /api/create-order, the form route used by
// the original landing page script. The merchant token is always the
// server's own; any user_token sent by the browser is ignored.
func (h *ContributionHandler) LegacyCreateOrder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, model.OrderResult{Status: false, Message: "Invalid form body"})
		return
	}

	req := model.ContributionRequest{
		Amount:         model.Amount(strings.TrimSpace(r.PostForm.Get("amount"))),
		CustomerMobile: r.PostForm.Get("customer_mobile"),
		RedirectURL:    r.PostForm.Get("redirect_url"),
		Remark1:        r.PostForm.Get("remark1"),
		Remark2:        r.PostForm.Get("remark2"),
	}
	if req.RedirectURL == "" {
		req.RedirectURL = originRedirect(r)
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, model.OrderResult{Status: false, Message: validationMessage(err)})
		return
	}

	result, err := h.contributions.ProxyCreateOrder(r.Context(), req)
	if err != nil {
		statusCode, _, message := mapError(err)
		h.logger.WarnContext(r.Context(), "Legacy create-order failed", "error", err)
		writeJSON(w, statusCode, model.OrderResult{Status: false, Message: message})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *ContributionHandler) fail(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	statusCode, code, message := mapError(err)
	if statusCode >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), logMsg, "error", err, "error_code", code)
	} else {
		h.logger.InfoContext(r.Context(), logMsg, "error", err, "error_code", code)
	}
	sendErrorResponse(w, code, message, statusCode)
}

// originRedirect returns the page origin when it is a usable absolute URL.
// Empty means the configured redirect applies.
func originRedirect(r *http.Request) string {
	origin := r.Header.Get("Origin")
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return origin
}
