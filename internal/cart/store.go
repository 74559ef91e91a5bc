package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	pkgerrors "github.com/angelmondragon/merch-checkout/pkg/errors"
	"github.com/angelmondragon/merch-checkout/pkg/logger"
	"github.com/angelmondragon/merch-checkout/pkg/storage"
)

// DefaultKey is the storage key holding the serialized cart.
const DefaultKey = "cart"

const resetAttempts = 3

type persistFailureRecorder interface {
	IncPersistFailure(op string)
}

// Option customizes a Store.
type Option func(*Store)

func WithLogger(logg *logger.Logger) Option {
	return func(s *Store) {
		if logg != nil {
			s.logg = logg
		}
	}
}

func WithMetrics(m persistFailureRecorder) Option {
	return func(s *Store) { s.metrics = m }
}

// Store owns the ordered list of cart items and mirrors it to a storage provider
// after every change.
type Store struct {
	mu       sync.Mutex
	items    []Item
	provider storage.Provider
	key      string
	logg     *logger.Logger
	metrics  persistFailureRecorder

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Snapshot)
}

// NewStore loads the persisted cart from provider. Unreadable data never fails
// construction; it is logged and the cart starts empty.
func NewStore(ctx context.Context, provider storage.Provider, opts ...Option) (*Store, error) {
	if provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "cart storage provider required")
	}
	s := &Store{
		provider: provider,
		key:      DefaultKey,
		logg:     logger.Nop(),
		subs:     make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load(ctx)
	return s, nil
}

func (s *Store) load(ctx context.Context) {
	ctx = s.logg.WithField(ctx, "key", s.key)

	raw, err := s.provider.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		s.logg.Error(ctx, "cart load failed, starting empty", err)
		return
	}
	if strings.TrimSpace(raw) == "" {
		return
	}

	items, dropped, fatal := decodeItems(raw)
	if fatal != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", fatal.Error()), "stored cart unreadable, discarding")
		if err := s.provider.Delete(ctx, s.key); err != nil {
			s.logg.Error(ctx, "discarding stored cart failed", err)
		}
		return
	}
	if dropped != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", dropped.Error()), "dropped malformed cart records")
	}
	s.items = items
}

// Add merges item into an existing line with the same id and size, or appends it.
func (s *Store) Add(ctx context.Context, item Item) error {
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		return pkgerrors.InvalidField("id", "item id is required")
	}
	if !item.Price.IsPositive() {
		return pkgerrors.InvalidField("price", "item price must be positive")
	}
	if !item.Price.Equal(item.Price.Round(2)) {
		return pkgerrors.InvalidField("price", "item price must be in whole cents")
	}
	if item.Quantity < 0 {
		return pkgerrors.InvalidField("quantity", "item quantity must be positive")
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}

	return s.mutate(ctx, "add", func(items []Item) ([]Item, error) {
		for i := range items {
			if items[i].key() == item.key() {
				items[i].Quantity += item.Quantity
				return items, nil
			}
		}
		return append(items, item), nil
	})
}

func (s *Store) Increment(ctx context.Context, index int) error {
	return s.mutate(ctx, "increment", func(items []Item) ([]Item, error) {
		if err := checkIndex(items, index); err != nil {
			return nil, err
		}
		items[index].Quantity++
		return items, nil
	})
}

// Decrement lowers the quantity at index and removes the line when it reaches zero.
func (s *Store) Decrement(ctx context.Context, index int) error {
	return s.mutate(ctx, "decrement", func(items []Item) ([]Item, error) {
		if err := checkIndex(items, index); err != nil {
			return nil, err
		}
		items[index].Quantity--
		if items[index].Quantity <= 0 {
			return append(items[:index], items[index+1:]...), nil
		}
		return items, nil
	})
}

func (s *Store) Remove(ctx context.Context, index int) error {
	return s.mutate(ctx, "remove", func(items []Item) ([]Item, error) {
		if err := checkIndex(items, index); err != nil {
			return nil, err
		}
		return append(items[:index], items[index+1:]...), nil
	})
}

func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, "clear", func([]Item) ([]Item, error) {
		return []Item{}, nil
	})
}

// Reset empties the cart in memory whatever the storage outcome, then deletes the
// stored copy, retrying up to resetAttempts times. On a persistence error the stored
// cart may reappear on the next load.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.items = []Item{}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)

	var errs error
	for attempt := 0; attempt < resetAttempts; attempt++ {
		err := s.provider.Delete(ctx, s.key)
		if err == nil || errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		errs = multierr.Append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if s.metrics != nil {
		s.metrics.IncPersistFailure("reset")
	}
	s.logg.Error(s.logg.WithField(ctx, "op", "reset"), "cart reset not saved", errs)
	return pkgerrors.Wrap(pkgerrors.CodePersistence, errs, "cart reset could not be saved")
}

func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return subtotal(s.items)
}

// ItemCount is the sum of quantities across all lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return itemCount(s.items)
}

func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Items:     cloneItems(s.items),
		Subtotal:  subtotal(s.items),
		ItemCount: itemCount(s.items),
	}
}

// Subscribe registers fn to receive a snapshot after every successful change.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	if fn == nil {
		return func() {}
	}
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// mutate applies fn to a copy of the items, persists the result and only then makes
// it current. A failed write leaves the in-memory cart untouched.
func (s *Store) mutate(ctx context.Context, op string, fn func([]Item) ([]Item, error)) error {
	s.mu.Lock()

	next, err := fn(cloneItems(s.items))
	if err != nil {
		s.mu.Unlock()
		return err
	}

	encoded, err := encodeItems(next)
	if err == nil {
		err = s.provider.Set(ctx, s.key, encoded)
	}
	if err != nil {
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.IncPersistFailure(op)
		}
		s.logg.Error(s.logg.WithField(ctx, "op", op), "cart persist failed, change rolled back", err)
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, fmt.Sprintf("cart %s could not be saved", op))
	}

	s.items = next
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return nil
}

func (s *Store) publish(snap Snapshot) {
	s.subMu.Lock()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func checkIndex(items []Item, index int) error {
	if index < 0 || index >= len(items) {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("cart item %d not found", index)).
			WithDetails(map[string]any{"index": index, "size": len(items)})
	}
	return nil
}
