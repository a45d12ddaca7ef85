package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"mahabharata-landing/internal/config"
	"mahabharata-landing/internal/gateway"
	"mahabharata-landing/internal/middleware"
	"mahabharata-landing/internal/repository"
	"mahabharata-landing/internal/service"
	"mahabharata-landing/internal/waitlist"
	"mahabharata-landing/pkg/logger"
)

// fakeUpstream plays the payment gateway and the waitlist endpoint
type fakeUpstream struct {
	mu           sync.Mutex
	createStatus int
	createBody   string
	statusBody   string
	statusDrop   bool
	waitlistBody string
	orders       []url.Values
	waitlist     []map[string]string
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/create-order":
		_ = r.ParseForm()
		f.orders = append(f.orders, r.PostForm)
		status := f.createStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		io.WriteString(w, f.createBody)
	case "/check-order-status":
		_ = r.ParseMultipartForm(1 << 20)
		if f.statusDrop {
			// close the connection without a response
			if conn, _, err := w.(http.Hijacker).Hijack(); err == nil {
				conn.Close()
			}
			return
		}
		io.WriteString(w, f.statusBody)
	case "/waitlist":
		var entry map[string]string
		_ = json.NewDecoder(r.Body).Decode(&entry)
		f.waitlist = append(f.waitlist, entry)
		io.WriteString(w, f.waitlistBody)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeUpstream) set(fn func(f *fakeUpstream)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeUpstream) lastOrder() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.orders) == 0 {
		return nil
	}
	return f.orders[len(f.orders)-1]
}

type testEnv struct {
	upstream *fakeUpstream
	server   *httptest.Server
}

const testAPIKey = "secret-key"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithGateway(t, "")
}

// newTestEnvWithGateway wires the full router against a fake upstream.
// A non-empty gatewayURL overrides the order endpoint.
func newTestEnvWithGateway(t *testing.T, gatewayURL string) *testEnv {
	t.Helper()

	up := &fakeUpstream{
		createBody:   `{"status":true,"message":"Order Created","result":{"payment_url":"https://pay.example.com/p/1"}}`,
		statusBody:   `{"status":"PENDING","message":"awaiting payment"}`,
		waitlistBody: `{"result":"success"}`,
	}
	upSrv := httptest.NewServer(up)
	t.Cleanup(upSrv.Close)

	if gatewayURL == "" {
		gatewayURL = upSrv.URL + "/create-order"
	}

	cfg := &config.Config{
		Gateway: config.GatewayConfig{
			CreateOrderURL: gatewayURL,
			StatusURL:      upSrv.URL + "/check-order-status",
			UserToken:      "tok",
			CustomerMobile: "6361247835",
			Timeout:        2 * time.Second,
		},
		Contribution: config.ContributionConfig{
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
		Security: config.SecurityConfig{APIKey: testAPIKey},
	}

	log := logger.Discard()
	repo, err := repository.NewOrderRepository(filepath.Join(t.TempDir(), "orders.db"))
	if err != nil {
		t.Fatalf("NewOrderRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	orders := gateway.NewOrderClient(cfg.Gateway.CreateOrderURL, gateway.WithTimeout(cfg.Gateway.Timeout))
	statuses := gateway.NewStatusClient(cfg.Gateway.StatusURL, gateway.WithTimeout(cfg.Gateway.Timeout))

	contributions := service.NewContributionService(orders, repo, cfg, log)
	poller := service.NewStatusPoller(statuses, repo, nil, cfg, log)
	joins := service.NewWaitlistService(waitlist.NewClient(upSrv.URL+"/waitlist", time.Second, nil), nil, log)

	router := NewRouter(Routes{
		Health:        NewHealthHandler(contributions, nil, cfg, log),
		Contributions: NewContributionHandler(contributions, poller, log),
		Waitlist:      NewWaitlistHandler(joins, log),
		Orders:        NewOrdersHandler(contributions, log),
		Groups:        NewGroupsHandler(nil, log),
		Auth:          middleware.NewAuthMiddleware(cfg.Security.APIKey, log),
	}, []string{"https://landing.example.com"}, log)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{upstream: up, server: srv}
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"error_code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path, contentType, body string, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body error = %v", err)
	}
	return resp, data
}

func decodeEnvelope(t *testing.T, body []byte) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode envelope %s: %v", body, err)
	}
	return env
}
