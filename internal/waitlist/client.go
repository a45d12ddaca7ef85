// Package waitlist posts signups to the spreadsheet-backed form endpoint.
package waitlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"mahabharata-landing/internal/model"
	"mahabharata-landing/pkg/telemetry"
)

// ErrRejected is returned when the endpoint does not answer {"result":"success"}
var ErrRejected = errors.New("waitlist submission rejected")

// Client submits waitlist entries
type Client struct {
	endpoint string
	client   *resty.Client
}

// NewClient creates a waitlist client. hc may be nil.
func NewClient(endpoint string, timeout time.Duration, hc *http.Client) *Client {
	var client *resty.Client
	if hc != nil {
		client = resty.NewWithClient(hc)
	} else {
		client = resty.New()
	}
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &Client{
		endpoint: endpoint,
		client:   client,
	}
}

// Submit posts one entry. Apps Script endpoints answer through a redirect,
// which the client follows.
func (c *Client) Submit(ctx context.Context, entry model.WaitlistEntry) error {
	ctx, span := telemetry.Tracer.Start(ctx, "waitlist.Submit")
	defer span.End()

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(entry).
		Post(c.endpoint)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to send waitlist entry: %w", err)
	}

	var reply model.WaitlistReply
	if err := json.Unmarshal(resp.Body(), &reply); err != nil {
		return fmt.Errorf("%w: unreadable response (http %d)", ErrRejected, resp.StatusCode())
	}
	if reply.Result != "success" {
		if reply.Error != "" {
			return fmt.Errorf("%w: %s", ErrRejected, reply.Error)
		}
		return fmt.Errorf("%w: result %q", ErrRejected, reply.Result)
	}

	return nil
}
