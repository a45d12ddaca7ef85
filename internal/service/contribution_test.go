package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"mahabharata-landing/internal/gateway"
	"mahabharata-landing/internal/model"
	"mahabharata-landing/internal/repository"
)

func okResult(url string) *model.OrderResult {
	return &model.OrderResult{Status: true, Result: &model.OrderPayload{PaymentURL: url}}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{in: "99", want: "99"},
		{in: " 500 ", want: "500"},
		{in: "100.00", want: "100"},
		{in: "0", wantErr: ErrInvalidAmount},
		{in: "-5", wantErr: ErrInvalidAmount},
		{in: "10.5", wantErr: ErrInvalidAmount},
		{in: "abc", wantErr: ErrInvalidAmount},
		{in: "", wantErr: ErrInvalidAmount},
		{in: "100001", wantErr: ErrAmountTooLarge},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in, 100000)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseAmount(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got.String() != tt.want {
			t.Errorf("ParseAmount(%q) = %s, %v, want %s", tt.in, got, err, tt.want)
		}
	}
}

func TestCreateContribution(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	creator := &fakeCreator{result: okResult("https://pay0.shop/pay/abc")}
	svc := NewContributionService(creator, store, testConfig(), quietLogger())

	c, err := svc.CreateContribution(ctx, model.ContributionRequest{Amount: "250"})
	if err != nil {
		t.Fatalf("CreateContribution() error = %v", err)
	}
	if c.PaymentURL != "https://pay0.shop/pay/abc" || c.Amount != "250" || c.Status != model.OrderStatusCreated {
		t.Errorf("CreateContribution() = %+v", c)
	}
	if !strings.HasPrefix(c.OrderID, "MBP") || len(c.OrderID) != 3+16 {
		t.Errorf("OrderID = %q, want MBP + 16 hex digits", c.OrderID)
	}

	req := creator.requests[0]
	want := model.OrderRequest{
		CustomerMobile: "6361247835",
		UserToken:      "tok",
		Amount:         "250",
		OrderID:        c.OrderID,
		RedirectURL:    "https://landing.example.com",
		Remark1:        "r1",
		Remark2:        "r2",
	}
	if req != want {
		t.Errorf("gateway request = %+v, want %+v", req, want)
	}

	stored, err := svc.GetContribution(ctx, c.OrderID)
	if err != nil {
		t.Fatalf("GetContribution() error = %v", err)
	}
	if stored.PaymentURL != c.PaymentURL || stored.Status != model.OrderStatusCreated {
		t.Errorf("stored = %+v", stored)
	}
}

func TestCreateContributionUsesRequestOverrides(t *testing.T) {
	creator := &fakeCreator{result: okResult("https://x")}
	svc := NewContributionService(creator, newStore(t), testConfig(), quietLogger())

	_, err := svc.CreateContribution(context.Background(), model.ContributionRequest{
		CustomerMobile: "9999999999",
		RedirectURL:    "https://mirror.example.org/support",
		Remark1:        "gift",
	})
	if err != nil {
		t.Fatal(err)
	}
	req := creator.requests[0]
	if req.Amount != "99" {
		t.Errorf("default amount = %q, want 99", req.Amount)
	}
	if req.CustomerMobile != "9999999999" || req.RedirectURL != "https://mirror.example.org/support" || req.Remark1 != "gift" || req.Remark2 != "r2" {
		t.Errorf("overrides not applied: %+v", req)
	}
}

func TestCreateContributionValidationNeverCallsGateway(t *testing.T) {
	tests := []struct {
		name    string
		req     model.ContributionRequest
		mutate  func(svc *ContributionService)
		wantErr error
	}{
		{name: "negative", req: model.ContributionRequest{Amount: "-1"}, wantErr: ErrInvalidAmount},
		{name: "fraction", req: model.ContributionRequest{Amount: "9.99"}, wantErr: ErrInvalidAmount},
		{name: "too large", req: model.ContributionRequest{Amount: "1000000"}, wantErr: ErrAmountTooLarge},
		{
			name:    "no redirect",
			req:     model.ContributionRequest{Amount: "10"},
			mutate:  func(svc *ContributionService) { svc.cfg.RedirectURL = "" },
			wantErr: ErrInvalidRedirect,
		},
		{name: "relative redirect", req: model.ContributionRequest{Amount: "10", RedirectURL: "/thanks"}, wantErr: ErrInvalidRedirect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator := &fakeCreator{result: okResult("https://x")}
			svc := NewContributionService(creator, newStore(t), testConfig(), quietLogger())
			if tt.mutate != nil {
				tt.mutate(svc)
			}
			_, err := svc.CreateContribution(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if creator.calls() != 0 {
				t.Errorf("gateway called %d times", creator.calls())
			}
		})
	}
}

func TestCreateContributionGatewayFailure(t *testing.T) {
	store := newStore(t)
	creator := &fakeCreator{err: &gateway.Error{Kind: gateway.KindProtocol, StatusCode: 200, Message: "bad token"}}
	svc := NewContributionService(creator, store, testConfig(), quietLogger())

	_, err := svc.CreateContribution(context.Background(), model.ContributionRequest{Amount: "99"})
	if !gateway.IsProtocol(err) {
		t.Fatalf("error = %v, want gateway protocol error", err)
	}
	if !strings.Contains(err.Error(), "bad token") {
		t.Errorf("error %q lost gateway message", err)
	}
	sent := creator.requests[0]
	rec, err := store.GetByOrderID(context.Background(), sent.OrderID)
	if err != nil || rec == nil {
		t.Fatalf("GetByOrderID(%s) = %v, %v", sent.OrderID, rec, err)
	}
	if rec.Status != model.OrderStatusFailed || rec.FailureReason != "bad token" {
		t.Errorf("stored = %+v, want FAILED with gateway message", rec)
	}
}

func TestCreateContributionReservesOrderBeforeGateway(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	creator := &fakeCreator{result: okResult("https://pay0.shop/pay/r")}
	creator.onCall = func(req model.OrderRequest) {
		rec, err := store.GetByOrderID(ctx, req.OrderID)
		if err != nil || rec == nil {
			t.Errorf("order %s not stored before gateway call: %v", req.OrderID, err)
			return
		}
		if rec.Status != model.OrderStatusCreated || rec.PaymentURL != "" {
			t.Errorf("reserved = %+v", rec)
		}
	}
	svc := NewContributionService(creator, store, testConfig(), quietLogger())

	c, err := svc.CreateContribution(ctx, model.ContributionRequest{Amount: "42"})
	if err != nil {
		t.Fatal(err)
	}
	stored, err := svc.GetContribution(ctx, c.OrderID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.PaymentURL != "https://pay0.shop/pay/r" || stored.Amount != "42" {
		t.Errorf("stored = %+v", stored)
	}
}

func TestCreateContributionMissingPaymentURL(t *testing.T) {
	creator := &fakeCreator{result: &model.OrderResult{Status: true}}
	svc := NewContributionService(creator, newStore(t), testConfig(), quietLogger())

	_, err := svc.CreateContribution(context.Background(), model.ContributionRequest{Amount: "99"})
	if !errors.Is(err, ErrMissingPaymentURL) {
		t.Fatalf("error = %v, want ErrMissingPaymentURL", err)
	}

	res, err := svc.ProxyCreateOrder(context.Background(), model.ContributionRequest{Amount: "99"})
	if err != nil || res == nil || !res.Status {
		t.Fatalf("ProxyCreateOrder() = %+v, %v; want raw gateway result", res, err)
	}
}

func TestAllocateOrderIDRetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	creator := &fakeCreator{result: okResult("https://x")}
	svc := NewContributionService(creator, store, testConfig(), quietLogger())

	ids := []string{"MBPTAKEN", "MBPTAKEN", "MBPFREE"}
	svc.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	store.Save(ctx, &repository.OrderRecord{OrderID: "MBPTAKEN", Amount: "1", Status: model.OrderStatusCreated, ExpiresAt: time.Now().Add(time.Hour)})

	c, err := svc.CreateContribution(ctx, model.ContributionRequest{Amount: "5"})
	if err != nil {
		t.Fatal(err)
	}
	if c.OrderID != "MBPFREE" {
		t.Errorf("OrderID = %q, want MBPFREE", c.OrderID)
	}

	svc.newID = func() string { return "MBPTAKEN" }
	_, err = svc.CreateContribution(ctx, model.ContributionRequest{Amount: "5"})
	if !errors.Is(err, ErrDuplicateOrder) {
		t.Errorf("error = %v, want ErrDuplicateOrder", err)
	}
}

func TestListContributions(t *testing.T) {
	ctx := context.Background()
	creator := &fakeCreator{result: okResult("https://x")}
	svc := NewContributionService(creator, newStore(t), testConfig(), quietLogger())

	for i := 0; i < 3; i++ {
		if _, err := svc.CreateContribution(ctx, model.ContributionRequest{Amount: "10"}); err != nil {
			t.Fatal(err)
		}
	}
	list, err := svc.ListContributions(ctx, 2)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListContributions() = %d items, %v", len(list), err)
	}
	if n, _ := svc.CountActive(ctx); n != 3 {
		t.Errorf("CountActive() = %d, want 3", n)
	}

	if _, err := svc.GetContribution(ctx, "MBPUNKNOWN"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("GetContribution(unknown) error = %v", err)
	}
}
