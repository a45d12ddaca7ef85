package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"mahabharata-landing/internal/model"
	"mahabharata-landing/pkg/logger"
)

// Notifier delivers short operator notifications
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// NopNotifier drops every notification
type NopNotifier struct{}

// Notify implements Notifier
func (NopNotifier) Notify(context.Context, string) error { return nil }

// RetryingNotifier retries a Notifier with exponential backoff
type RetryingNotifier struct {
	next       Notifier
	retryCount int
	baseDelay  time.Duration
	logger     *logger.Logger
}

// NewRetryingNotifier wraps next with retryCount extra attempts
func NewRetryingNotifier(next Notifier, retryCount int, baseDelay time.Duration, log *logger.Logger) *RetryingNotifier {
	return &RetryingNotifier{
		next:       next,
		retryCount: retryCount,
		baseDelay:  baseDelay,
		logger:     log,
	}
}

// Notify sends text, retrying with 1x, 2x, 4x... baseDelay between attempts
func (n *RetryingNotifier) Notify(ctx context.Context, text string) error {
	var lastErr error

	for attempt := 0; attempt <= n.retryCount; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * n.baseDelay
			n.logger.Warn("Retrying notification",
				"attempt", attempt+1,
				"backoff_seconds", backoff.Seconds(),
			)
			select {
			case <-ctx.Done():
				return fmt.Errorf("notification cancelled: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		err := n.next.Notify(ctx, text)
		if err == nil {
			if attempt > 0 {
				n.logger.Info("Notification delivered", "attempt", attempt+1)
			}
			return nil
		}

		lastErr = err
		n.logger.Warn("Notification failed",
			"attempt", attempt+1,
			"error", err,
		)
	}

	return fmt.Errorf("notification failed after %d attempts: %w", n.retryCount+1, lastErr)
}

// ContributionCompletedMessage formats the paid-order notification
func ContributionCompletedMessage(c *model.Contribution) string {
	return fmt.Sprintf(
		"🙏 NEW CONTRIBUTION\n"+
			"━━━━━━━━━━━━━━━━\n"+
			"Order: %s\n"+
			"Amount: ₹%s\n"+
			"Paid at: %s",
		c.OrderID,
		c.Amount,
		c.UpdatedAt.Format(time.RFC3339),
	)
}

// WaitlistJoinedMessage formats the waitlist signup notification
func WaitlistJoinedMessage(e model.WaitlistEntry) string {
	return fmt.Sprintf(
		"📝 WAITLIST SIGNUP\n"+
			"━━━━━━━━━━━━━━━━\n"+
			"%s %s <%s>",
		e.FirstName,
		e.LastName,
		e.Email,
	)
}
