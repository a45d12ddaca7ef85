package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"mahabharata-landing/internal/config"
	"mahabharata-landing/internal/gateway"
	"mahabharata-landing/internal/model"
	"mahabharata-landing/internal/repository"
	"mahabharata-landing/pkg/logger"
)

const orderIDAttempts = 3

// OrderCreator creates orders at the payment gateway
type OrderCreator interface {
	CreateOrder(ctx context.Context, req model.OrderRequest) (*model.OrderResult, error)
}

// ContributionService turns contribution form submissions into gateway orders
type ContributionService struct {
	gateway   OrderCreator
	store     OrderStore
	cfg       config.ContributionConfig
	userToken string
	mobile    string
	ttl       time.Duration
	logger    *logger.Logger
	newID     func() string
}

// NewContributionService creates a new contribution service
func NewContributionService(gw OrderCreator, store OrderStore, cfg *config.Config, log *logger.Logger) *ContributionService {
	s := &ContributionService{
		gateway:   gw,
		store:     store,
		cfg:       cfg.Contribution,
		userToken: cfg.Gateway.UserToken,
		mobile:    cfg.Gateway.CustomerMobile,
		ttl:       cfg.Storage.OrderTTL,
		logger:    log,
	}
	s.newID = s.generateOrderID
	return s
}

// ParseAmount accepts a positive whole number not above max (max <= 0
// disables the bound)
func ParseAmount(raw string, max int64) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, raw)
	}
	if !d.IsPositive() || !d.IsInteger() {
		return decimal.Zero, fmt.Errorf("%w: %s must be a positive whole number", ErrInvalidAmount, d.String())
	}
	if max > 0 && d.GreaterThan(decimal.NewFromInt(max)) {
		return decimal.Zero, fmt.Errorf("%w: %s > %d", ErrAmountTooLarge, d.String(), max)
	}
	return d, nil
}

// generateOrderID returns the prefix followed by 16 hex digits of a random UUID
func (s *ContributionService) generateOrderID() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return s.cfg.OrderIDPrefix + id[:16]
}

// reserveOrder stores the order as CREATED under a fresh ID before the
// gateway sees it, so an accepted order always has a local row
func (s *ContributionService) reserveOrder(ctx context.Context, orderReq *model.OrderRequest) error {
	for i := 0; i < orderIDAttempts; i++ {
		now := time.Now()
		record := &repository.OrderRecord{
			OrderID:        s.newID(),
			Amount:         orderReq.Amount,
			CustomerMobile: orderReq.CustomerMobile,
			RedirectURL:    orderReq.RedirectURL,
			Status:         model.OrderStatusCreated,
			CreatedAt:      now,
			UpdatedAt:      now,
			ExpiresAt:      now.Add(s.ttl),
		}
		err := s.store.Save(ctx, record)
		if errors.Is(err, repository.ErrDuplicateOrderID) {
			s.logger.WithOrderID(record.OrderID).Warn("Generated order id already in use", "attempt", i+1)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to reserve order: %w", err)
		}
		orderReq.OrderID = record.OrderID
		return nil
	}
	return ErrDuplicateOrder
}

func (s *ContributionService) buildOrderRequest(req model.ContributionRequest) (model.OrderRequest, error) {
	raw := string(req.Amount)
	if strings.TrimSpace(raw) == "" {
		raw = fmt.Sprintf("%d", s.cfg.DefaultAmount)
	}
	amount, err := ParseAmount(raw, s.cfg.MaxAmount)
	if err != nil {
		return model.OrderRequest{}, err
	}

	redirect := req.RedirectURL
	if redirect == "" {
		redirect = s.cfg.RedirectURL
	}
	if u, err := url.Parse(redirect); err != nil || u.Scheme == "" || u.Host == "" {
		return model.OrderRequest{}, fmt.Errorf("%w: %q", ErrInvalidRedirect, redirect)
	}

	return model.OrderRequest{
		CustomerMobile: firstNonEmpty(req.CustomerMobile, s.mobile),
		UserToken:      s.userToken,
		Amount:         amount.String(),
		RedirectURL:    redirect,
		Remark1:        firstNonEmpty(req.Remark1, s.cfg.Remark1),
		Remark2:        firstNonEmpty(req.Remark2, s.cfg.Remark2),
	}, nil
}

func (s *ContributionService) createOrder(ctx context.Context, req model.ContributionRequest) (model.OrderRequest, *model.OrderResult, error) {
	orderReq, err := s.buildOrderRequest(req)
	if err != nil {
		return orderReq, nil, err
	}
	if err := s.reserveOrder(ctx, &orderReq); err != nil {
		return orderReq, nil, err
	}

	log := s.logger.WithOrderID(orderReq.OrderID)
	log.InfoContext(ctx, "Creating payment order", "amount", orderReq.Amount)

	// Bookkeeping below must land even if the caller has gone away
	storeCtx := context.WithoutCancel(ctx)

	result, err := s.gateway.CreateOrder(ctx, orderReq)
	if err != nil {
		reason := err.Error()
		var gwErr *gateway.Error
		if errors.As(err, &gwErr) {
			log.WarnContext(ctx, "Payment order rejected", "detail", gwErr.Detail())
		} else {
			log.WarnContext(ctx, "Payment order failed", "error", err)
		}
		if _, uerr := s.store.UpdateStatus(storeCtx, orderReq.OrderID, model.OrderStatusFailed, "", reason); uerr != nil {
			log.ErrorContext(ctx, "Failed to mark order failed", "error", uerr)
		}
		return orderReq, nil, fmt.Errorf("failed to create order: %w", err)
	}

	if paymentURL := result.PaymentURL(); paymentURL != "" {
		if err := s.store.SetPaymentURL(storeCtx, orderReq.OrderID, paymentURL); err != nil {
			// The reserved row stays queryable; only the link is missing
			log.ErrorContext(ctx, "Failed to save payment url", "error", err)
		}
	}

	log.InfoContext(ctx, "Payment order created", "has_payment_url", result.PaymentURL() != "")
	return orderReq, result, nil
}

// CreateContribution validates the request, creates a gateway order and
// stores it. Validation failures never reach the gateway.
func (s *ContributionService) CreateContribution(ctx context.Context, req model.ContributionRequest) (*model.Contribution, error) {
	orderReq, result, err := s.createOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	if result.PaymentURL() == "" {
		return nil, ErrMissingPaymentURL
	}

	now := time.Now()
	return &model.Contribution{
		OrderID:    orderReq.OrderID,
		Amount:     orderReq.Amount,
		PaymentURL: result.PaymentURL(),
		Status:     model.OrderStatusCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// ProxyCreateOrder serves the legacy form route and returns the gateway
// result as-is.
func (s *ContributionService) ProxyCreateOrder(ctx context.Context, req model.ContributionRequest) (*model.OrderResult, error) {
	_, result, err := s.createOrder(ctx, req)
	return result, err
}

// GetContribution returns a stored, non-expired order
func (s *ContributionService) GetContribution(ctx context.Context, orderID string) (*model.Contribution, error) {
	record, err := s.store.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if record == nil {
		return nil, ErrOrderNotFound
	}
	return toContribution(record), nil
}

// ListContributions returns the newest stored orders
func (s *ContributionService) ListContributions(ctx context.Context, limit int) ([]*model.Contribution, error) {
	records, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	out := make([]*model.Contribution, 0, len(records))
	for _, r := range records {
		out = append(out, toContribution(r))
	}
	return out, nil
}

// CountActive returns the number of non-expired stored orders
func (s *ContributionService) CountActive(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}

// RunCleanup removes expired orders every interval until ctx is done
func (s *ContributionService) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := s.store.CleanupExpired(ctx)
			if err != nil {
				s.logger.Error("Failed to cleanup expired orders", "error", err)
			} else if count > 0 {
				s.logger.Info("Cleaned up expired orders", "count", count)
			}
		}
	}
}

func toContribution(r *repository.OrderRecord) *model.Contribution {
	return &model.Contribution{
		OrderID:       r.OrderID,
		Amount:        r.Amount,
		PaymentURL:    r.PaymentURL,
		Status:        r.Status,
		GatewayStatus: r.GatewayStatus,
		FailureReason: r.FailureReason,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
