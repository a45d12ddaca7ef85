package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"mahabharata-landing/internal/model"
	"mahabharata-landing/pkg/telemetry"
)

// OrderClient creates payment orders at a fixed gateway endpoint
type OrderClient struct {
	endpoint string
	client   *resty.Client
}

// NewOrderClient creates a client posting to endpoint
func NewOrderClient(endpoint string, opts ...Option) *OrderClient {
	return &OrderClient{
		endpoint: endpoint,
		client:   newRestyClient(opts),
	}
}

// Endpoint returns the configured creation URL
func (c *OrderClient) Endpoint() string {
	return c.endpoint
}

// EncodeOrderForm builds the URL-encoded body of an order request
func EncodeOrderForm(req model.OrderRequest) url.Values {
	form := url.Values{}
	form.Set("customer_mobile", req.CustomerMobile)
	form.Set("user_token", req.UserToken)
	form.Set("amount", req.Amount)
	form.Set("order_id", req.OrderID)
	form.Set("redirect_url", req.RedirectURL)
	form.Set("remark1", req.Remark1)
	form.Set("remark2", req.Remark2)
	return form
}

// CreateOrder submits one order creation request. It succeeds only when the
// response is 2xx and its status field is the boolean true; there is no retry.
func (c *OrderClient) CreateOrder(ctx context.Context, req model.OrderRequest) (*model.OrderResult, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "gateway.CreateOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", req.OrderID))

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetFormDataFromValues(EncodeOrderForm(req)).
		Post(c.endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return nil, transportError(err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode()))

	result, err := decodeOrderResult(resp.StatusCode(), resp.IsSuccess(), resp.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result, nil
}

func decodeOrderResult(statusCode int, success bool, body []byte) (*model.OrderResult, error) {
	var envelope struct {
		Status  json.RawMessage `json:"status"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, protocolError(statusCode, "", err)
	}

	if !success || !bytes.Equal(bytes.TrimSpace(envelope.Status), []byte("true")) {
		return nil, protocolError(statusCode, rawMessage(envelope.Message), nil)
	}

	var result model.OrderResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, protocolError(statusCode, "", err)
	}
	return &result, nil
}

// rawMessage returns the message field when it is a JSON string
func rawMessage(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}
