package service

import "errors"

var (
	// ErrInvalidAmount is returned before any gateway call when the amount
	// is not a positive whole number
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrAmountTooLarge is returned when the amount exceeds the configured maximum
	ErrAmountTooLarge = errors.New("amount exceeds maximum")
	// ErrInvalidRedirect is returned when no absolute redirect URL is available
	ErrInvalidRedirect = errors.New("invalid redirect url")
	// ErrMissingPaymentURL is returned when the gateway accepted the order
	// but gave no payment page
	ErrMissingPaymentURL = errors.New("gateway returned no payment url")
	// ErrOrderNotFound is returned for unknown or expired order IDs
	ErrOrderNotFound = errors.New("order not found")
	// ErrDuplicateOrder is returned when no unique order ID could be allocated
	ErrDuplicateOrder = errors.New("duplicate order id")
	// ErrPollTimeout is returned when an order is still unpaid at the deadline
	ErrPollTimeout = errors.New("order status polling timed out")
)
