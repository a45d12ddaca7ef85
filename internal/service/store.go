package service

import (
	"context"

	"mahabharata-landing/internal/repository"
)

// OrderStore persists contribution orders
type OrderStore interface {
	Save(ctx context.Context, record *repository.OrderRecord) error
	SetPaymentURL(ctx context.Context, orderID, paymentURL string) error
	GetByOrderID(ctx context.Context, orderID string) (*repository.OrderRecord, error)
	UpdateStatus(ctx context.Context, orderID, status, gatewayStatus, reason string) (bool, error)
	ListRecent(ctx context.Context, limit int) ([]*repository.OrderRecord, error)
	ListPending(ctx context.Context, limit int) ([]*repository.OrderRecord, error)
	CleanupExpired(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}
