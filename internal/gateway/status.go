package gateway

import (
	"context"
	"encoding/json"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"

	"mahabharata-landing/internal/model"
	"mahabharata-landing/pkg/telemetry"
)

// CompletedStatus is the gateway status of a paid order
const CompletedStatus = "COMPLETED"

// StatusClient checks order status at a fixed gateway endpoint
type StatusClient struct {
	endpoint string
	client   *resty.Client
}

// NewStatusClient creates a client posting to endpoint
func NewStatusClient(endpoint string, opts ...Option) *StatusClient {
	return &StatusClient{
		endpoint: endpoint,
		client:   newRestyClient(opts),
	}
}

// Endpoint returns the configured status URL
func (c *StatusClient) Endpoint() string {
	return c.endpoint
}

// CheckStatus performs a single status query. It never returns both a
// payload and a reason: the result is Completed with the gateway's result
// field, or Failed with the gateway message (possibly empty) or the
// transport/parse error.
func (c *StatusClient) CheckStatus(ctx context.Context, query model.StatusQuery) model.StatusResult {
	ctx, span := telemetry.Tracer.Start(ctx, "gateway.CheckStatus")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", query.OrderID))

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetMultipartFormData(map[string]string{
			"user_token": query.UserToken,
			"order_id":   query.OrderID,
		}).
		Post(c.endpoint)
	if err != nil {
		span.RecordError(err)
		return failed(transportError(err))
	}

	result := decodeStatusResult(resp.StatusCode(), resp.Body())
	span.SetAttributes(
		attribute.String("order.gateway_status", result.GatewayStatus),
		attribute.String("order.status_kind", result.Kind.String()),
	)
	return result
}

func decodeStatusResult(statusCode int, body []byte) model.StatusResult {
	var payload struct {
		Status  json.RawMessage `json:"status"`
		Message json.RawMessage `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return failed(&Error{Kind: KindProtocol, StatusCode: statusCode, Message: err.Error(), Err: err})
	}

	status := rawMessage(payload.Status)
	if status == CompletedStatus {
		return model.StatusResult{
			Kind:          model.StatusCompleted,
			GatewayStatus: status,
			Payload:       nullToEmpty(payload.Result),
		}
	}

	return model.StatusResult{
		Kind:          model.StatusFailed,
		GatewayStatus: status,
		Reason:        rawMessage(payload.Message),
	}
}

func failed(err *Error) model.StatusResult {
	return model.StatusResult{
		Kind:   model.StatusFailed,
		Reason: err.Message,
		Err:    err,
	}
}

func nullToEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}
