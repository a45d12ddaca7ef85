package gateway

import (
	"errors"
	"fmt"
)

// UnknownErrorMessage is reported when the gateway gives no message
const UnknownErrorMessage = "Unknown error"

// ErrorKind separates network failures from rejected requests
type ErrorKind int

const (
	// KindTransport covers DNS, connection, timeout and cancellation failures
	KindTransport ErrorKind = iota + 1
	// KindProtocol covers responses that arrived but signal failure
	KindProtocol
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// Error is returned by every failed gateway call. Its message is the
// gateway-supplied message when there is one.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail describes the failure for logs, including the status code and cause
func (e *Error) Detail() string {
	s := fmt.Sprintf("%s failure: %s", e.Kind, e.Message)
	if e.StatusCode != 0 {
		s += fmt.Sprintf(" (http %d)", e.StatusCode)
	}
	if e.Err != nil && e.Err.Error() != e.Message {
		s += ": " + e.Err.Error()
	}
	return s
}

// IsTransport reports whether err is a gateway transport failure
func IsTransport(err error) bool {
	var gwErr *Error
	return errors.As(err, &gwErr) && gwErr.Kind == KindTransport
}

// IsProtocol reports whether err is a gateway rejection
func IsProtocol(err error) bool {
	var gwErr *Error
	return errors.As(err, &gwErr) && gwErr.Kind == KindProtocol
}

func transportError(err error) *Error {
	return &Error{Kind: KindTransport, Message: err.Error(), Err: err}
}

func protocolError(statusCode int, message string, cause error) *Error {
	if message == "" {
		message = UnknownErrorMessage
	}
	return &Error{Kind: KindProtocol, StatusCode: statusCode, Message: message, Err: cause}
}
