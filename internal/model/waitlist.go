package model

// WaitlistEntry is a waitlist signup as posted to the spreadsheet endpoint
type WaitlistEntry struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
}

// WaitlistReply is the spreadsheet endpoint's response
type WaitlistReply struct {
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}
