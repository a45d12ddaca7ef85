package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestRepo(t *testing.T) *OrderRepository {
	t.Helper()
	repo, err := NewOrderRepository(filepath.Join(t.TempDir(), "db", "orders.db"))
	if err != nil {
		t.Fatalf("NewOrderRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func record(orderID string, ttl time.Duration) *OrderRecord {
	now := time.Now()
	return &OrderRecord{
		OrderID:    orderID,
		Amount:     "99",
		PaymentURL: "https://pay/" + orderID,
		Status:     "CREATED",
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
}

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	rec := record("MBP1", time.Hour)
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if rec.ID == 0 {
		t.Error("Save() did not set ID")
	}

	got, err := repo.GetByOrderID(ctx, "MBP1")
	if err != nil {
		t.Fatalf("GetByOrderID() error = %v", err)
	}
	if got == nil || got.PaymentURL != "https://pay/MBP1" || got.Status != "CREATED" {
		t.Fatalf("GetByOrderID() = %+v", got)
	}

	missing, err := repo.GetByOrderID(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("GetByOrderID(missing) = %+v, %v", missing, err)
	}
}

func TestSaveDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.Save(ctx, record("MBP1", time.Hour)); err != nil {
		t.Fatal(err)
	}
	err := repo.Save(ctx, record("MBP1", time.Hour))
	if !errors.Is(err, ErrDuplicateOrderID) {
		t.Fatalf("Save(duplicate) error = %v, want ErrDuplicateOrderID", err)
	}
	exists, err := repo.Exists(ctx, "MBP1")
	if err != nil || !exists {
		t.Fatalf("Exists() = %v, %v", exists, err)
	}
}

func TestUpdateStatusKeepsCompletedFinal(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	repo.Save(ctx, record("MBP1", time.Hour))

	changed, err := repo.UpdateStatus(ctx, "MBP1", "COMPLETED", "COMPLETED", "")
	if err != nil || !changed {
		t.Fatalf("UpdateStatus(COMPLETED) = %v, %v", changed, err)
	}
	changed, err = repo.UpdateStatus(ctx, "MBP1", "PENDING", "PENDING", "")
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("completed order moved back to PENDING")
	}

	got, _ := repo.GetByOrderID(ctx, "MBP1")
	if got.Status != "COMPLETED" {
		t.Errorf("Status = %q, want COMPLETED", got.Status)
	}
}

func TestListPendingAndRecent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, id := range []string{"A", "B", "C"} {
		if err := repo.Save(ctx, record(id, time.Hour)); err != nil {
			t.Fatal(err)
		}
	}
	repo.UpdateStatus(ctx, "B", "COMPLETED", "COMPLETED", "")
	repo.UpdateStatus(ctx, "C", "PENDING", "PENDING", "")

	pending, err := repo.ListPending(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 || pending[0].OrderID != "A" || pending[1].OrderID != "C" {
		t.Fatalf("ListPending() = %v", ids(pending))
	}

	recent, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].OrderID != "C" {
		t.Fatalf("ListRecent() = %v", ids(recent))
	}
}

func TestCleanupExpired(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	repo.Save(ctx, record("live", time.Hour))
	repo.Save(ctx, record("old", -time.Minute))

	if got, _ := repo.GetByOrderID(ctx, "old"); got != nil {
		t.Error("expired order returned by GetByOrderID")
	}
	count, _ := repo.Count(ctx)
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}

	removed, err := repo.CleanupExpired(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("CleanupExpired() = %d, %v", removed, err)
	}
	exists, _ := repo.Exists(ctx, "old")
	if exists {
		t.Error("expired order still stored after cleanup")
	}
}

func ids(records []*OrderRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.OrderID
	}
	return out
}

func TestSetPaymentURL(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	rec := record("MBP9", time.Hour)
	rec.PaymentURL = ""
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatal(err)
	}

	if err := repo.SetPaymentURL(ctx, "MBP9", "https://pay/late"); err != nil {
		t.Fatalf("SetPaymentURL() error = %v", err)
	}
	got, err := repo.GetByOrderID(ctx, "MBP9")
	if err != nil || got == nil {
		t.Fatalf("GetByOrderID() = %v, %v", got, err)
	}
	if got.PaymentURL != "https://pay/late" || got.Status != "CREATED" {
		t.Errorf("record = %+v", got)
	}
}
