package model

// APIResponse is the envelope for every JSON response of the server
type APIResponse struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError represents error response
type APIError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}
