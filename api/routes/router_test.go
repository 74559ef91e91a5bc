package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/merch-checkout/internal/checkout"
	"github.com/angelmondragon/merch-checkout/internal/payments"
	"github.com/angelmondragon/merch-checkout/internal/sessions"
	"github.com/angelmondragon/merch-checkout/pkg/config"
	"github.com/angelmondragon/merch-checkout/pkg/metrics"
	"github.com/angelmondragon/merch-checkout/pkg/storage"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type webhookRecorder struct {
	mu     sync.Mutex
	bodies []map[string]any
	keys   []string
}

func (w *webhookRecorder) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)
	w.mu.Lock()
	w.bodies = append(w.bodies, body)
	w.keys = append(w.keys, r.Header.Get(payments.HeaderIdempotencyKey))
	w.mu.Unlock()
	rw.Header().Set("Content-Type", "application/json")
	_, _ = rw.Write([]byte(`{"reference":"wh-1"}`))
}

func newTestServer(t *testing.T, pinger stubPinger) (http.Handler, *webhookRecorder) {
	t.Helper()
	hook := &webhookRecorder{}
	srv := httptest.NewServer(hook)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		App:     config.AppConfig{Env: "dev"},
		Storage: config.StorageConfig{Backend: "memory"},
		Payment: config.PaymentConfig{WebhookURL: srv.URL, BreakerFailures: 5},
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewCheckoutMetrics(reg)

	sink, err := payments.NewWebhookSink(cfg.Payment, payments.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("sink: %v", err)
	}
	submitter, err := payments.NewSubmitter(sink, payments.WithPaymentMetrics(m))
	if err != nil {
		t.Fatalf("submitter: %v", err)
	}
	registry, err := sessions.NewRegistry(storage.NewMemoryFactory(), submitter, checkout.Pricing{
		TaxRate:        decimal.RequireFromString("0.0825"),
		Shipping:       decimal.RequireFromString("5.99"),
		Currency:       "USD",
		DefaultCountry: "US",
	}, sessions.WithMetrics(m))
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	return NewRouter(cfg, nil, pinger, registry, reg), hook
}

func call(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-Session-Id", "router-test")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestHealthRoutes(t *testing.T) {
	h, _ := newTestServer(t, stubPinger{})
	if resp := call(t, h, http.MethodGet, "/health/live", ""); resp.Code != http.StatusOK {
		t.Fatalf("live: expected 200 got %d", resp.Code)
	}
	if resp := call(t, h, http.MethodGet, "/health/ready", ""); resp.Code != http.StatusOK {
		t.Fatalf("ready: expected 200 got %d", resp.Code)
	}

	down, _ := newTestServer(t, stubPinger{err: errors.New("redis down")})
	if resp := call(t, down, http.MethodGet, "/health/ready", ""); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready: expected 503 got %d", resp.Code)
	}
}

func TestCheckoutEndToEndThroughWebhook(t *testing.T) {
	h, hook := newTestServer(t, stubPinger{})

	steps := []struct {
		method, path, body string
		status             int
	}{
		{http.MethodPost, "/api/v1/cart/items", `{"id":"tour-tee","name":"Tour Tee","price":25,"size":"M"}`, http.StatusCreated},
		{http.MethodPost, "/api/v1/checkout/begin", "", http.StatusOK},
		{http.MethodPost, "/api/v1/checkout/shipping", `{"email":"ada@example.com","phone":"(512) 555-0100",
			"fullName":"Ada Lovelace","address1":"1 Analytical Way","city":"Austin","state":"TX","zip":"78701"}`, http.StatusOK},
		{http.MethodPost, "/api/v1/checkout/card", `{"cardNumber":"4532015112830366","expiry":"12/29","cvc":"123",
			"cardholderName":"Ada Lovelace"}`, http.StatusCreated},
	}
	for _, step := range steps {
		resp := call(t, h, step.method, step.path, step.body)
		if resp.Code != step.status {
			t.Fatalf("%s %s: expected %d got %d: %s", step.method, step.path, step.status, resp.Code, resp.Body.String())
		}
	}

	if len(hook.bodies) != 1 {
		t.Fatalf("expected exactly one webhook call, got %d", len(hook.bodies))
	}
	body := hook.bodies[0]
	if body["total"] != 33.05 {
		t.Fatalf("expected total 33.05 at the webhook, got %v", body["total"])
	}
	payment := body["payment"].(map[string]any)
	if payment["last4"] != "0366" || payment["cardType"] != "visa" {
		t.Fatalf("unexpected payment payload %v", payment)
	}
	raw, _ := json.Marshal(body)
	if strings.Contains(string(raw), "4532015112830366") || strings.Contains(string(raw), `"cvc"`) {
		t.Fatalf("card secrets reached the webhook: %s", raw)
	}
	if !strings.HasPrefix(hook.keys[0], "order-") {
		t.Fatalf("unexpected idempotency key %q", hook.keys[0])
	}

	resp := call(t, h, http.MethodGet, "/api/v1/cart", "")
	if !strings.Contains(resp.Body.String(), `"itemCount":0`) {
		t.Fatalf("cart should be empty after payment: %s", resp.Body.String())
	}
}

func TestMetricsEndpointExposesCheckoutMetrics(t *testing.T) {
	h, _ := newTestServer(t, stubPinger{})
	call(t, h, http.MethodPost, "/api/v1/cart/items", `{"id":"pin","name":"Pin","price":4}`)
	call(t, h, http.MethodPost, "/api/v1/checkout/begin", "")

	resp := call(t, h, http.MethodGet, "/metrics", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `checkout_transitions_total{from="browsing",to="shipping_form"} 1`) {
		t.Fatalf("transition metric missing:\n%s", resp.Body.String())
	}
}

func TestSessionHeaderIsEchoed(t *testing.T) {
	h, _ := newTestServer(t, stubPinger{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-Session-Id") == "" {
		t.Fatalf("expected a minted session id header")
	}
}
