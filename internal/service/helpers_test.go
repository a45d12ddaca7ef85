package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mahabharata-landing/internal/config"
	"mahabharata-landing/internal/model"
	"mahabharata-landing/internal/repository"
	"mahabharata-landing/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Gateway: config.GatewayConfig{
			UserToken:      "tok",
			CustomerMobile: "6361247835",
		},
		Contribution: config.ContributionConfig{
			RedirectURL:   "https://landing.example.com",
			DefaultAmount: 99,
			MaxAmount:     100000,
			Remark1:       "r1",
			Remark2:       "r2",
			OrderIDPrefix: "MBP",
		},
		Polling: config.PollingConfig{
			Interval: 10 * time.Millisecond,
			Timeout:  time.Second,
		},
		Storage: config.StorageConfig{
			OrderTTL: time.Hour,
		},
	}
}

func newStore(t *testing.T) *repository.OrderRepository {
	t.Helper()
	repo, err := repository.NewOrderRepository(filepath.Join(t.TempDir(), "orders.db"))
	if err != nil {
		t.Fatalf("NewOrderRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

type fakeCreator struct {
	mu       sync.Mutex
	requests []model.OrderRequest
	result   *model.OrderResult
	err      error
	onCall   func(req model.OrderRequest)
}

func (f *fakeCreator) CreateOrder(ctx context.Context, req model.OrderRequest) (*model.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.onCall != nil {
		f.onCall(req)
	}
	return f.result, f.err
}

func (f *fakeCreator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeChecker struct {
	mu      sync.Mutex
	results []model.StatusResult
	calls   int
}

// CheckStatus replays results in order and repeats the last one
func (f *fakeChecker) CheckStatus(ctx context.Context, q model.StatusQuery) model.StatusResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	return f.results[i]
}

func (f *fakeChecker) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	failures int
	sent     chan string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(chan string, 10)}
}

func (f *fakeNotifier) Notify(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return context.DeadlineExceeded
	}
	f.messages = append(f.messages, text)
	f.sent <- text
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func quietLogger() *logger.Logger {
	return logger.Discard()
}
