package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
)

// ErrDuplicateOrderID is returned by Save when the order ID is already stored
var ErrDuplicateOrderID = errors.New("order id already exists")

// OrderRecord represents an order record in database
type OrderRecord struct {
	ID             int64     `json:"id"`
	OrderID        string    `json:"order_id"`
	Amount         string    `json:"amount"`
	CustomerMobile string    `json:"customer_mobile"`
	RedirectURL    string    `json:"redirect_url"`
	PaymentURL     string    `json:"payment_url"`
	Status         string    `json:"status"`
	GatewayStatus  string    `json:"gateway_status"`
	FailureReason  string    `json:"failure_reason"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// OrderRepository handles database operations for orders
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository opens (and creates if needed) the sqlite order store
func NewOrderRepository(dbPath string) (*OrderRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", dbPath))
	if err != nil {
		return nil, err
	}

	// Create table if not exists
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id TEXT NOT NULL UNIQUE,
			amount TEXT NOT NULL,
			customer_mobile TEXT NOT NULL DEFAULT '',
			redirect_url TEXT NOT NULL DEFAULT '',
			payment_url TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			gateway_status TEXT NOT NULL DEFAULT '',
			failure_reason TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
		CREATE INDEX IF NOT EXISTS idx_orders_expires_at ON orders(expires_at);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &OrderRepository{db: db}, nil
}

// Close closes database connection
func (r *OrderRepository) Close() error {
	return r.db.Close()
}

// Save saves an order record
func (r *OrderRepository) Save(ctx context.Context, record *OrderRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (order_id, amount, customer_mobile, redirect_url, payment_url, status, gateway_status, failure_reason, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.OrderID, record.Amount, record.CustomerMobile, record.RedirectURL, record.PaymentURL,
		record.Status, record.GatewayStatus, record.FailureReason, record.CreatedAt, record.UpdatedAt, record.ExpiresAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicateOrderID
		}
		return err
	}

	record.ID, _ = result.LastInsertId()
	return nil
}

// Exists reports whether an order ID was ever stored, expired or not
func (r *OrderRepository) Exists(ctx context.Context, orderID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE order_id = ?`, orderID).Scan(&n)
	return n > 0, err
}

const selectColumns = `id, order_id, amount, customer_mobile, redirect_url, payment_url, status, gateway_status, failure_reason, created_at, updated_at, expires_at`

func scanOrder(row interface{ Scan(...any) error }) (*OrderRecord, error) {
	var record OrderRecord
	err := row.Scan(
		&record.ID,
		&record.OrderID,
		&record.Amount,
		&record.CustomerMobile,
		&record.RedirectURL,
		&record.PaymentURL,
		&record.Status,
		&record.GatewayStatus,
		&record.FailureReason,
		&record.CreatedAt,
		&record.UpdatedAt,
		&record.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetByOrderID gets an order by its ID (only non-expired)
func (r *OrderRepository) GetByOrderID(ctx context.Context, orderID string) (*OrderRecord, error) {
	record, err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM orders
		WHERE order_id = ? AND expires_at > ?
		LIMIT 1
	`, orderID, time.Now()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// SetPaymentURL stores the hosted payment page returned by the gateway
func (r *OrderRepository) SetPaymentURL(ctx context.Context, orderID, paymentURL string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders SET payment_url = ?, updated_at = ? WHERE order_id = ?
	`, paymentURL, time.Now(), orderID)
	return err
}

// UpdateStatus records a status transition. Completed orders are final and
// are never moved back to another status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID, status, gatewayStatus, reason string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, gateway_status = ?, failure_reason = ?, updated_at = ?
		WHERE order_id = ? AND status != 'COMPLETED'
	`, status, gatewayStatus, reason, time.Now(), orderID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// ListRecent returns the newest non-expired orders
func (r *OrderRepository) ListRecent(ctx context.Context, limit int) ([]*OrderRecord, error) {
	return r.list(ctx, `
		SELECT `+selectColumns+`
		FROM orders
		WHERE expires_at > ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, time.Now(), limit)
}

// ListPending returns non-expired orders still waiting for payment, oldest first
func (r *OrderRepository) ListPending(ctx context.Context, limit int) ([]*OrderRecord, error) {
	return r.list(ctx, `
		SELECT `+selectColumns+`
		FROM orders
		WHERE status IN ('CREATED', 'PENDING') AND expires_at > ?
		ORDER BY created_at ASC, id ASC
		LIMIT ?
	`, time.Now(), limit)
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]*OrderRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*OrderRecord, 0)
	for rows.Next() {
		record, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// CleanupExpired removes expired order records
func (r *OrderRepository) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM orders WHERE expires_at <= ?
	`, time.Now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Count returns total active (non-expired) orders
func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM orders WHERE expires_at > ?
	`, time.Now()).Scan(&count)
	return count, err
}
