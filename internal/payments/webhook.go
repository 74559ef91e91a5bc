package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/angelmondragon/merch-checkout/pkg/config"
	pkgerrors "github.com/angelmondragon/merch-checkout/pkg/errors"
	"github.com/angelmondragon/merch-checkout/pkg/logger"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"

	maxErrorBody = 64 << 10
)

// statusError is a non-2xx answer from the webhook.
type statusError struct {
	status int
	reason string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("webhook returned status %d", e.status)
}

// WebhookOption customizes a WebhookSink.
type WebhookOption func(*WebhookSink)

// WithHTTPClient replaces the instrumented default client. Tests use httptest clients.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(w *WebhookSink) {
		if client != nil {
			w.client = client
		}
	}
}

func WithWebhookLogger(logg *logger.Logger) WebhookOption {
	return func(w *WebhookSink) {
		if logg != nil {
			w.logg = logg
		}
	}
}

// WebhookSink posts orders as JSON to a configured URL behind a circuit breaker.
type WebhookSink struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*SinkResponse]
	logg    *logger.Logger
}

func NewWebhookSink(cfg config.PaymentConfig, opts ...WebhookOption) (*WebhookSink, error) {
	if strings.TrimSpace(cfg.WebhookURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "payment webhook url required")
	}

	w := &WebhookSink{
		url: cfg.WebhookURL,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logg: logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	w.breaker = gobreaker.NewCircuitBreaker[*SinkResponse](gobreaker.Settings{
		Name:        "payment-webhook",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A rejected order is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return se.status < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			ctx := w.logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			w.logg.Warn(ctx, "payment webhook circuit changed state")
		},
	})
	return w, nil
}

// Send posts req once. Failures come back as PAYMENT_ERROR with a displayable message.
func (w *WebhookSink) Send(ctx context.Context, req Request, idempotencyKey string) (*SinkResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode payment request")
	}

	resp, err := w.breaker.Execute(func() (*SinkResponse, error) {
		return w.post(ctx, body, idempotencyKey)
	})
	if err == nil {
		return resp, nil
	}

	var se *statusError
	switch {
	case errors.As(err, &se):
		msg := se.reason
		if msg == "" {
			msg = DefaultFailureMessage
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePayment, err, msg).
			WithDetails(map[string]any{"status": se.status})
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, pkgerrors.Wrap(pkgerrors.CodePayment, err, "Payment service is temporarily unavailable. Please try again shortly.").
			WithDetails(map[string]any{"reason": "circuit_open"})
	default:
		// timeouts and transport errors are classified by the submitter
		return nil, err
	}
}

func (w *WebhookSink) post(ctx context.Context, body []byte, idempotencyKey string) (*SinkResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build webhook request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if idempotencyKey != "" {
		httpReq.Header.Set(HeaderIdempotencyKey, idempotencyKey)
	}

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{status: resp.StatusCode, reason: failureReason(raw)}
	}
	return &SinkResponse{StatusCode: resp.StatusCode, Reference: referenceFrom(raw)}, nil
}

type webhookBody struct {
	Message   string `json:"message"`
	Error     string `json:"error"`
	ID        string `json:"id"`
	Reference string `json:"reference"`
}

func failureReason(raw []byte) string {
	var body webhookBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(body.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(body.Error)
}

func referenceFrom(raw []byte) string {
	var body webhookBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Reference != "" {
		return body.Reference
	}
	return body.ID
}
