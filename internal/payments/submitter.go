package payments

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/merch-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/merch-checkout/pkg/errors"
	"github.com/angelmondragon/merch-checkout/pkg/logger"
)

const (
	// DefaultFailureMessage is shown when the payment service gives no reason.
	DefaultFailureMessage = "Payment processing failed. Please try again."
	DefaultTimeout        = 15 * time.Second

	idempotencyPrefix = "order"
)

// Sink delivers one order document to the payment backend.
type Sink interface {
	Send(ctx context.Context, req Request, idempotencyKey string) (*SinkResponse, error)
}

// SinkResponse is what an accepting sink reports back.
type SinkResponse struct {
	StatusCode int
	Reference  string
}

type paymentObserver interface {
	ObservePayment(method string, duration time.Duration, ok bool)
}

type SubmitterOption func(*Submitter)

func WithTimeout(d time.Duration) SubmitterOption {
	return func(s *Submitter) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithSubmitterLogger(logg *logger.Logger) SubmitterOption {
	return func(s *Submitter) {
		if logg != nil {
			s.logg = logg
		}
	}
}

func WithPaymentMetrics(m paymentObserver) SubmitterOption {
	return func(s *Submitter) { s.metrics = m }
}

func WithClock(now func() time.Time) SubmitterOption {
	return func(s *Submitter) {
		if now != nil {
			s.now = now
		}
	}
}

// Submitter turns a priced order into exactly one sink call bounded by a timeout.
type Submitter struct {
	sink    Sink
	timeout time.Duration
	now     func() time.Time
	logg    *logger.Logger
	metrics paymentObserver
}

func NewSubmitter(sink Sink, opts ...SubmitterOption) (*Submitter, error) {
	if sink == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "payment sink required")
	}
	s := &Submitter{
		sink:    sink,
		timeout: DefaultTimeout,
		now:     time.Now,
		logg:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IdempotencyKey is the key sent with an order; retries of the same order reuse it.
func IdempotencyKey(order Order) string {
	return idempotencyPrefix + "-" + order.ID.String()
}

// Submit sends the order and returns either a receipt or a PAYMENT_ERROR, never both.
func (s *Submitter) Submit(ctx context.Context, order Order) (*Receipt, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"method":   order.Method.String(),
	})

	req := BuildRequest(order, s.now())
	key := IdempotencyKey(order)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	resp, err := s.sink.Send(callCtx, req, key)
	elapsed := time.Since(started)

	if err != nil {
		perr := classify(callCtx, err)
		if s.metrics != nil {
			s.metrics.ObservePayment(order.Method.String(), elapsed, false)
		}
		s.logg.Error(ctx, "payment submission failed", perr)
		return nil, perr
	}
	if s.metrics != nil {
		s.metrics.ObservePayment(order.Method.String(), elapsed, true)
	}

	reference := key
	if resp != nil && resp.Reference != "" {
		reference = resp.Reference
	}
	if order.Method == enums.PaymentMethodPayPal && order.PayPal != nil {
		reference = order.PayPal.TransactionID
	}

	s.logg.Info(ctx, "payment submitted")
	return &Receipt{
		OrderID:     order.ID,
		Method:      order.Method,
		Status:      req.PaymentStatus,
		Total:       order.Total,
		Currency:    order.Currency,
		Reference:   reference,
		SubmittedAt: s.now(),
	}, nil
}

// classify maps any sink failure onto a PAYMENT_ERROR whose message is safe to show.
func classify(ctx context.Context, err error) *pkgerrors.Error {
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodePayment {
		return typed
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodePayment, err, "Payment request timed out. Please try again.").
			WithDetails(map[string]any{"reason": "timeout"})
	}
	if errors.Is(err, context.Canceled) {
		return pkgerrors.Wrap(pkgerrors.CodePayment, err, DefaultFailureMessage).
			WithDetails(map[string]any{"reason": "canceled"})
	}
	return pkgerrors.Wrap(pkgerrors.CodePayment, err, DefaultFailureMessage)
}
