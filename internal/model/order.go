package model

import (
	"encoding/json"
	"time"
)

// OrderRequest is the form submitted to the payment gateway to create an order
type OrderRequest struct {
	CustomerMobile string
	UserToken      string
	Amount         string
	OrderID        string
	RedirectURL    string
	Remark1        string
	Remark2        string
}

// OrderResult is the gateway's reply to an order creation request. Top-level
// fields other than status, message and result are kept verbatim in Extra.
type OrderResult struct {
	Status  bool                       `json:"status"`
	Message string                     `json:"message,omitempty"`
	Result  *OrderPayload              `json:"result,omitempty"`
	Extra   map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the known fields leniently and keeps the rest.
// A status that is not a boolean reads as false; a message that is not a
// string reads as empty.
func (r *OrderResult) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*r = OrderResult{}
	if raw, ok := fields["status"]; ok {
		_ = json.Unmarshal(raw, &r.Status)
		delete(fields, "status")
	}
	if raw, ok := fields["message"]; ok {
		_ = json.Unmarshal(raw, &r.Message)
		delete(fields, "message")
	}
	if raw, ok := fields["result"]; ok {
		if string(raw) != "null" {
			r.Result = &OrderPayload{}
			if err := r.Result.UnmarshalJSON(raw); err != nil {
				return err
			}
		}
		delete(fields, "result")
	}
	if len(fields) > 0 {
		r.Extra = fields
	}
	return nil
}

// MarshalJSON writes the known fields together with the preserved ones
func (r OrderResult) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(r.Extra)+3)
	for k, v := range r.Extra {
		fields[k] = v
	}
	status, err := json.Marshal(r.Status)
	if err != nil {
		return nil, err
	}
	fields["status"] = status
	if r.Message != "" {
		if fields["message"], err = json.Marshal(r.Message); err != nil {
			return nil, err
		}
	}
	if r.Result != nil {
		if fields["result"], err = json.Marshal(r.Result); err != nil {
			return nil, err
		}
	}
	return json.Marshal(fields)
}

// OrderPayload holds the gateway's order data. Fields other than
// payment_url are kept verbatim in Extra; a result that is not an object
// is kept whole in Raw.
type OrderPayload struct {
	PaymentURL string                     `json:"payment_url"`
	Extra      map[string]json.RawMessage `json:"-"`
	Raw        json.RawMessage            `json:"-"`
}

// UnmarshalJSON keeps unknown result fields alongside payment_url. It never
// fails: unexpected shapes end up in Raw or Extra.
func (p *OrderPayload) UnmarshalJSON(data []byte) error {
	*p = OrderPayload{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		p.Raw = append(json.RawMessage(nil), data...)
		return nil
	}
	if raw, ok := fields["payment_url"]; ok {
		if json.Unmarshal(raw, &p.PaymentURL) == nil {
			delete(fields, "payment_url")
		}
	}
	if len(fields) > 0 {
		p.Extra = fields
	}
	return nil
}

// MarshalJSON writes payment_url together with the preserved fields
func (p OrderPayload) MarshalJSON() ([]byte, error) {
	if p.Raw != nil {
		return p.Raw, nil
	}
	fields := make(map[string]json.RawMessage, len(p.Extra)+1)
	for k, v := range p.Extra {
		fields[k] = v
	}
	if _, kept := fields["payment_url"]; !kept {
		url, err := json.Marshal(p.PaymentURL)
		if err != nil {
			return nil, err
		}
		fields["payment_url"] = url
	}
	return json.Marshal(fields)
}

// PaymentURL returns the hosted payment page URL, or "" when absent
func (r *OrderResult) PaymentURL() string {
	if r == nil || r.Result == nil {
		return ""
	}
	return r.Result.PaymentURL
}

// StatusQuery identifies an order whose status is requested
type StatusQuery struct {
	UserToken string
	OrderID   string
}

// StatusKind tells whether a status check found the order completed
type StatusKind int

const (
	StatusCompleted StatusKind = iota + 1
	StatusFailed
)

func (k StatusKind) String() string {
	switch k {
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StatusResult is the outcome of one status check. Completed results carry
// Payload; Failed results carry Reason and, for transport failures, Err.
type StatusResult struct {
	Kind          StatusKind
	GatewayStatus string
	Payload       json.RawMessage
	Reason        string
	Err           error
}

// Completed reports whether the order was paid
func (r StatusResult) Completed() bool {
	return r.Kind == StatusCompleted
}

// Order status values kept in the local store
const (
	OrderStatusCreated   = "CREATED"
	OrderStatusPending   = "PENDING"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusFailed    = "FAILED"
)

// Amount is a contribution amount as typed on the page. JSON numbers and
// strings both decode to their text; any other value is kept raw so amount
// parsing rejects it.
type Amount string

// UnmarshalJSON implements json.Unmarshaler
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = Amount(s)
		return nil
	}
	if string(data) == "null" {
		*a = ""
		return nil
	}
	*a = Amount(data)
	return nil
}

// ContributionRequest is the landing page's contribution form
type ContributionRequest struct {
	Amount         Amount `json:"amount,omitempty"`
	CustomerMobile string `json:"customer_mobile,omitempty" validate:"omitempty,numeric,min=10,max=15"`
	RedirectURL    string `json:"redirect_url,omitempty" validate:"omitempty,url"`
	Remark1        string `json:"remark1,omitempty" validate:"max=100"`
	Remark2        string `json:"remark2,omitempty" validate:"max=100"`
}

// Contribution is a created order as returned to the landing page
type Contribution struct {
	OrderID       string    `json:"order_id"`
	Amount        string    `json:"amount"`
	PaymentURL    string    `json:"payment_url"`
	Status        string    `json:"status"`
	GatewayStatus string    `json:"gateway_status,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StatusResponse is the API view of a status check
type StatusResponse struct {
	OrderID       string          `json:"order_id"`
	Completed     bool            `json:"completed"`
	GatewayStatus string          `json:"gateway_status,omitempty"`
	Result        json.RawMessage `json:"result,omitempty"`
	Reason        string          `json:"reason,omitempty"`
}
