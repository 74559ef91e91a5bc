package sessions

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/merch-checkout/internal/cart"
	"github.com/angelmondragon/merch-checkout/internal/checkout"
	"github.com/angelmondragon/merch-checkout/internal/payments"
	"github.com/angelmondragon/merch-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/merch-checkout/pkg/errors"
	"github.com/angelmondragon/merch-checkout/pkg/logger"
	"github.com/angelmondragon/merch-checkout/pkg/storage"
)

const maxSessionIDLength = 64

type checkoutMetrics interface {
	IncTransition(from, to string)
	IncPersistFailure(op string)
}

type residentGauge interface {
	SetResidentSessions(n int)
}

type paymentSubmitter interface {
	Submit(ctx context.Context, order payments.Order) (*payments.Receipt, error)
}

// Session bundles the cart and checkout controller for one shopper.
type Session struct {
	ID       string
	Cart     *cart.Store
	Checkout *checkout.Controller

	lastSeen time.Time
}

type Option func(*Registry)

func WithLogger(logg *logger.Logger) Option {
	return func(r *Registry) {
		if logg != nil {
			r.logg = logg
		}
	}
}

func WithMetrics(m checkoutMetrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithIdleTTL drops sessions untouched for ttl on the next sweep. Zero keeps them
// for the life of the process.
func WithIdleTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		if ttl > 0 {
			r.idleTTL = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// Registry builds sessions lazily against one storage backend. Idle sessions are
// evicted from memory; their carts stay in storage and reload on the next Get.
type Registry struct {
	factory   storage.Factory
	submitter paymentSubmitter
	pricing   checkout.Pricing
	logg      *logger.Logger
	metrics   checkoutMetrics
	idleTTL   time.Duration
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(factory storage.Factory, submitter paymentSubmitter, pricing checkout.Pricing, opts ...Option) (*Registry, error) {
	if factory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "storage factory required")
	}
	if submitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "payment submitter required")
	}
	r := &Registry{
		factory:   factory,
		submitter: submitter,
		pricing:   pricing,
		logg:      logger.Nop(),
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// NewID mints a session id for shoppers that arrive without one.
func NewID() string {
	return uuid.NewString()
}

// ValidID accepts the ids NewID produces plus any short token of letters, digits,
// dashes and underscores.
func ValidID(id string) bool {
	if id == "" || len(id) > maxSessionIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// Get returns the session for id, loading its cart from storage on first use. The
// load runs outside the registry lock; when two callers race on a new id the first
// insert wins and both get that session.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if !ValidID(id) {
		return nil, pkgerrors.InvalidField("X-Session-Id", "invalid session id")
	}

	if s, ok := r.lookup(id); ok {
		return s, nil
	}

	ctx = r.logg.WithSessionID(ctx, id)
	loaded, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.lastSeen = r.now()
		return s, nil
	}
	loaded.lastSeen = r.now()
	r.sessions[id] = loaded
	r.reportResident()
	r.logg.Debug(ctx, "session loaded")
	return loaded, nil
}

func (r *Registry) lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if ok {
		s.lastSeen = r.now()
	}
	return s, ok
}

func (r *Registry) load(ctx context.Context, id string) (*Session, error) {
	store, err := cart.NewStore(ctx, r.factory.Provider(id),
		cart.WithLogger(r.logg),
		cart.WithMetrics(r.metrics),
	)
	if err != nil {
		return nil, err
	}
	ctrl, err := checkout.NewController(store, r.submitter, r.pricing, checkout.WithLogger(r.logg))
	if err != nil {
		return nil, err
	}
	ctrl.OnTransition(func(t checkout.Transition) {
		if r.metrics != nil {
			r.metrics.IncTransition(t.From.String(), t.To.String())
		}
		tctx := r.logg.WithFields(r.logg.WithSessionID(context.Background(), id), map[string]any{
			"from": t.From.String(),
			"to":   t.To.String(),
		})
		if t.To.IsTerminal() {
			r.logg.Info(r.logg.WithCheckoutID(tctx, t.SessionID.String()), "checkout completed")
			return
		}
		r.logg.Info(tctx, "checkout transition")
	})
	return &Session{ID: id, Cart: store, Checkout: ctrl}, nil
}

// Sweep evicts sessions idle for longer than the configured TTL and returns how many
// were dropped. Sessions with a payment in flight are kept.
func (r *Registry) Sweep(ctx context.Context) int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, s := range r.sessions {
		if s.lastSeen.After(cutoff) || s.Checkout.State() == enums.CheckoutStateProcessing {
			continue
		}
		delete(r.sessions, id)
		evicted++
	}
	if evicted > 0 {
		r.reportResident()
		r.logg.Info(r.logg.WithField(ctx, "evicted", evicted), "idle sessions evicted")
	}
	return evicted
}

// Run sweeps on every tick until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if r.idleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

func (r *Registry) reportResident() {
	if g, ok := r.metrics.(residentGauge); ok {
		g.SetResidentSessions(len(r.sessions))
	}
}

// Len reports how many sessions are resident.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) Ping(ctx context.Context) error {
	return r.factory.Ping(ctx)
}
