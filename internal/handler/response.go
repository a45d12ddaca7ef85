package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"mahabharata-landing/internal/gateway"
	"mahabharata-landing/internal/model"
	"mahabharata-landing/internal/service"
)

var validate = validator.New()

// Error codes returned in the error envelope
const (
	CodeInvalidRequest     = "ERR_INVALID_REQUEST"
	CodeInvalidAmount      = "ERR_INVALID_AMOUNT"
	CodeGatewayRejected    = "ERR_GATEWAY_REJECTED"
	CodeGatewayUnavailable = "ERR_GATEWAY_UNAVAILABLE"
	CodeOrderNotFound      = "ERR_ORDER_NOT_FOUND"
	CodeDuplicateOrder     = "ERR_DUPLICATE_ORDER"
	CodeWaitlistRejected   = "ERR_WAITLIST_REJECTED"
	CodeNotifyDisabled     = "ERR_NOTIFICATIONS_DISABLED"
	CodeInternal           = "ERR_INTERNAL_SERVER"
)

// writeJSON sends v with the given status code
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// sendSuccessResponse sends success response
func sendSuccessResponse(w http.ResponseWriter, statusCode int, message string, data any) {
	writeJSON(w, statusCode, model.APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// sendErrorResponse sends error response
func sendErrorResponse(w http.ResponseWriter, code, message string, statusCode int) {
	writeJSON(w, statusCode, model.APIResponse{
		Status:  "error",
		Message: message,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// mapError maps a service error to an HTTP status, error code and the
// message shown to the visitor
func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrInvalidAmount), errors.Is(err, service.ErrAmountTooLarge):
		return http.StatusBadRequest, CodeInvalidAmount, "Please enter a valid whole amount."
	case errors.Is(err, service.ErrInvalidRedirect):
		return http.StatusBadRequest, CodeInvalidRequest, "A valid redirect URL is required."
	case errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound, CodeOrderNotFound, "Order not found."
	case errors.Is(err, service.ErrDuplicateOrder):
		return http.StatusConflict, CodeDuplicateOrder, "Could not allocate an order id. Please try again."
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeGatewayUnavailable, "The payment service took too long to respond. Please try again."
	case gateway.IsTransport(err):
		return http.StatusServiceUnavailable, CodeGatewayUnavailable, "The payment service is unreachable. Please try again later."
	case errors.Is(err, service.ErrMissingPaymentURL):
		return http.StatusBadGateway, CodeGatewayRejected, "The payment service did not return a payment link."
	case gateway.IsProtocol(err):
		var gwErr *gateway.Error
		errors.As(err, &gwErr)
		return http.StatusBadGateway, CodeGatewayRejected, gwErr.Message
	default:
		return http.StatusInternalServerError, CodeInternal, "Something went wrong. Please try again later."
	}
}

// validationMessage summarizes validator errors as "field: rule" pairs
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msg := "Invalid fields:"
	for i, fe := range verrs {
		if i > 0 {
			msg += ","
		}
		msg += " " + fe.Field() + " (" + fe.Tag() + ")"
	}
	return msg
}
