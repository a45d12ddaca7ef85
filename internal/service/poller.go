package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mahabharata-landing/internal/config"
	"mahabharata-landing/internal/model"
	"mahabharata-landing/internal/repository"
	"mahabharata-landing/pkg/logger"
)

const sweepBatchSize = 50

// terminalStatuses are gateway statuses after which an order will never complete
var terminalStatuses = map[string]bool{
	"FAILED":    true,
	"FAILURE":   true,
	"CANCELLED": true,
	"CANCELED":  true,
	"EXPIRED":   true,
	"REJECTED":  true,
}

// StatusChecker queries the gateway for an order's status
type StatusChecker interface {
	CheckStatus(ctx context.Context, query model.StatusQuery) model.StatusResult
}

// IsTerminalFailure reports whether res is a definitive non-payment
func IsTerminalFailure(res model.StatusResult) bool {
	return res.Kind == model.StatusFailed && res.Err == nil && terminalStatuses[strings.ToUpper(res.GatewayStatus)]
}

// StatusPoller checks order status at the gateway and records transitions
type StatusPoller struct {
	checker   StatusChecker
	store     OrderStore
	notifier  Notifier
	userToken string
	interval  time.Duration
	timeout   time.Duration
	logger    *logger.Logger
}

// NewStatusPoller creates a new status poller
func NewStatusPoller(checker StatusChecker, store OrderStore, notifier Notifier, cfg *config.Config, log *logger.Logger) *StatusPoller {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &StatusPoller{
		checker:   checker,
		store:     store,
		notifier:  notifier,
		userToken: cfg.Gateway.UserToken,
		interval:  cfg.Polling.Interval,
		timeout:   cfg.Polling.Timeout,
		logger:    log,
	}
}

// MaxWait returns the longest wait WaitForCompletion allows
func (p *StatusPoller) MaxWait() time.Duration {
	return p.timeout
}

// CheckOnce performs one status query for a stored order and records the
// outcome
func (p *StatusPoller) CheckOnce(ctx context.Context, orderID string) (model.StatusResult, error) {
	record, err := p.store.GetByOrderID(ctx, orderID)
	if err != nil {
		return model.StatusResult{}, fmt.Errorf("failed to load order: %w", err)
	}
	if record == nil {
		return model.StatusResult{}, ErrOrderNotFound
	}

	res := p.checker.CheckStatus(ctx, model.StatusQuery{
		UserToken: p.userToken,
		OrderID:   orderID,
	})
	p.record(ctx, record, res)

	return res, nil
}

func (p *StatusPoller) record(ctx context.Context, record *repository.OrderRecord, res model.StatusResult) {
	log := p.logger.WithOrderID(record.OrderID)

	var status string
	switch {
	case res.Completed():
		status = model.OrderStatusCompleted
	case res.Err != nil:
		log.WarnContext(ctx, "Order status check failed", "error", res.Err)
		return
	case IsTerminalFailure(res):
		status = model.OrderStatusFailed
	default:
		status = model.OrderStatusPending
	}

	if status == record.Status && res.GatewayStatus == record.GatewayStatus && res.Reason == record.FailureReason {
		return
	}

	// Store writes must survive the caller giving up on the request.
	storeCtx := context.WithoutCancel(ctx)
	changed, err := p.store.UpdateStatus(storeCtx, record.OrderID, status, res.GatewayStatus, res.Reason)
	if err != nil {
		log.ErrorContext(ctx, "Failed to update order status", "error", err, "status", status)
		return
	}
	if !changed {
		return
	}

	log.InfoContext(ctx, "Order status changed",
		"from", record.Status,
		"to", status,
		"gateway_status", res.GatewayStatus,
	)

	if status == model.OrderStatusCompleted {
		c := toContribution(record)
		c.UpdatedAt = time.Now()
		if err := p.notifier.Notify(storeCtx, ContributionCompletedMessage(c)); err != nil {
			log.ErrorContext(ctx, "Failed to send contribution notification", "error", err)
		}
	}
}

// WaitForCompletion polls until the order completes, fails terminally, ctx
// is cancelled, or wait (capped at the configured timeout) elapses. It
// returns the last answer the gateway gave, preferring it over a later
// transport failure.
func (p *StatusPoller) WaitForCompletion(ctx context.Context, orderID string, wait time.Duration) (model.StatusResult, error) {
	if wait <= 0 || wait > p.timeout {
		wait = p.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var last model.StatusResult
	for {
		res, err := p.CheckOnce(ctx, orderID)
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return res, err
		}
		if res.Completed() || IsTerminalFailure(res) {
			return res, nil
		}
		if res.Err == nil || last.Kind == 0 {
			last = res
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return last, fmt.Errorf("%w after %s", ErrPollTimeout, wait)
			}
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Run re-checks stored orders still awaiting payment every interval until
// ctx is done
func (p *StatusPoller) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Sweep(ctx)
		}
	}
}

// Sweep checks one batch of pending orders
func (p *StatusPoller) Sweep(ctx context.Context) {
	pending, err := p.store.ListPending(ctx, sweepBatchSize)
	if err != nil {
		p.logger.Error("Failed to list pending orders", "error", err)
		return
	}

	for _, record := range pending {
		if ctx.Err() != nil {
			return
		}
		res := p.checker.CheckStatus(ctx, model.StatusQuery{
			UserToken: p.userToken,
			OrderID:   record.OrderID,
		})
		p.record(ctx, record, res)
	}

	if len(pending) > 0 {
		p.logger.Debug("Pending orders swept", "count", len(pending))
	}
}
