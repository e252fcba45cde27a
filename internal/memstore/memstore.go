// Package memstore is an in-memory implementation of the rental stores and
// ledger. It backs the test suite and local development without Postgres;
// the per-toy lock contract matches the row locks of the pgx ledger.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/louaab/rental-backend/internal/rental"
	"go.uber.org/zap"
)

type Store struct {
	Notifier rental.Notifier
	LockWait time.Duration
	Log      *zap.Logger

	mu        sync.Mutex
	toys      map[string]rental.Toy
	orders    map[string]rental.Order
	customers map[string]rental.Customer
	locks     map[string]chan struct{} // semaphore per toy id
}

func New() *Store {
	return &Store{
		toys:      map[string]rental.Toy{},
		orders:    map[string]rental.Order{},
		customers: map[string]rental.Customer{},
		locks:     map[string]chan struct{}{},
	}
}

func (s *Store) lockWait() time.Duration {
	if s.LockWait > 0 {
		return s.LockWait
	}
	return 3 * time.Second
}

// acquire takes the per-toy lock, bounded by LockWait. Locks for different
// toys never block each other.
func (s *Store) acquire(ctx context.Context, toyID string) (release func(), err error) {
	s.mu.Lock()
	ch, ok := s.locks[toyID]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[toyID] = ch
	}
	s.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-time.After(s.lockWait()):
		return nil, fmt.Errorf("toy %s: %w", toyID, rental.ErrLockTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ---- seeding / lookups ----

func (s *Store) PutToy(t rental.Toy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toys[t.ID] = t
}

func (s *Store) PutCustomer(c rental.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
}

func (s *Store) GetToy(_ context.Context, id string) (rental.Toy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.toys[id]
	if !ok {
		return rental.Toy{}, fmt.Errorf("toy %s: %w", id, rental.ErrNotFound)
	}
	return t, nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (rental.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return rental.Customer{}, fmt.Errorf("customer %s: %w", id, rental.ErrNotFound)
	}
	return c, nil
}

// ---- OrderStore ----

func (s *Store) CreateOrder(_ context.Context, o *rental.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.OrderNumber == "" {
		o.OrderNumber = rental.OrderNumber(len(s.orders))
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	if o.Delivery != nil {
		o.Delivery.OrderID = o.ID
	}
	s.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (s *Store) GetOrder(_ context.Context, id string) (rental.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return rental.Order{}, fmt.Errorf("order %s: %w", id, rental.ErrNotFound)
	}
	return cloneOrder(o), nil
}

func (s *Store) CountOrders(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders), nil
}

func (s *Store) CountByStatus(_ context.Context) (map[rental.Status]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[rental.Status]int{}
	for _, o := range s.orders {
		out[o.Status]++
	}
	return out, nil
}

// ---- Ledger ----

func (s *Store) Adjust(ctx context.Context, toyID string, delta int, opts rental.AdjustOpts) (rental.Toy, error) {
	release, err := s.acquire(ctx, toyID)
	if err != nil {
		return rental.Toy{}, err
	}
	defer release()

	now := time.Now().UTC()
	s.mu.Lock()
	toy, ok := s.toys[toyID]
	if !ok {
		s.mu.Unlock()
		return rental.Toy{}, fmt.Errorf("toy %s: %w", toyID, rental.ErrNotFound)
	}
	updated, clamped := rental.ApplyAdjustment(toy, delta, opts, now)
	s.toys[toyID] = updated
	s.mu.Unlock()

	if clamped && s.Log != nil {
		s.Log.Warn("stock adjustment clamped", zap.String("toy_id", toyID), zap.Int("delta", delta))
	}
	// notify sebelum release supaya urutan per toy terjaga
	if s.Notifier != nil {
		s.Notifier.StockChanged(stockEvent(updated, now))
	}
	return updated, nil
}

func (s *Store) ApplyTransition(ctx context.Context, orderID string, from, to rental.Status, adjs []rental.Adjustment) ([]rental.Toy, error) {
	sorted := make([]rental.Adjustment, len(adjs))
	copy(sorted, adjs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ToyID < sorted[j].ToyID })

	// Locks dalam urutan id tetap, persis seperti row locks di Postgres.
	releases := make([]func(), 0, len(sorted))
	defer func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}()
	held := map[string]bool{}
	for _, a := range sorted {
		if held[a.ToyID] {
			continue // duplicate line for the same toy
		}
		release, err := s.acquire(ctx, a.ToyID)
		if err != nil {
			return nil, err
		}
		releases = append(releases, release)
		held[a.ToyID] = true
	}

	now := time.Now().UTC()
	s.mu.Lock()
	o, ok := s.orders[orderID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("order %s: %w", orderID, rental.ErrNotFound)
	}
	if o.Status != from {
		cur := o.Status
		s.mu.Unlock()
		return nil, fmt.Errorf("order %s: %s -> %s (current %s): %w", orderID, from, to, cur, rental.ErrInvalidTransition)
	}

	var shorts []rental.StockShort
	for _, a := range sorted {
		toy, ok := s.toys[a.ToyID]
		if !ok {
			s.mu.Unlock()
			return nil, fmt.Errorf("toy %s: %w", a.ToyID, rental.ErrNotFound)
		}
		if a.Require > 0 && toy.EffectiveAvailable() < a.Require {
			shorts = append(shorts, rental.StockShort{
				ToyID: a.ToyID, Required: a.Require, Available: toy.EffectiveAvailable(),
			})
		}
	}
	if len(shorts) > 0 {
		s.mu.Unlock()
		return nil, &rental.InsufficientStockError{Details: shorts}
	}

	updated := make([]rental.Toy, 0, len(sorted))
	for _, a := range sorted {
		next, clamped := rental.ApplyAdjustment(s.toys[a.ToyID], a.Delta, a.Opts, now)
		if clamped && s.Log != nil {
			s.Log.Warn("stock adjustment clamped", zap.String("toy_id", a.ToyID), zap.Int("delta", a.Delta))
		}
		s.toys[a.ToyID] = next
		updated = append(updated, next)
	}
	o.Status = to
	o.UpdatedAt = now
	s.orders[orderID] = o
	s.mu.Unlock()

	if s.Notifier != nil {
		for _, t := range updated {
			s.Notifier.StockChanged(stockEvent(t, now))
		}
	}
	return updated, nil
}

func stockEvent(t rental.Toy, at time.Time) rental.StockChangedEvent {
	return rental.StockChangedEvent{
		ToyID:             t.ID,
		StockQuantity:     t.StockQuantity,
		AvailableQuantity: t.AvailableQuantity,
		Status:            t.Status,
		Timestamp:         at,
	}
}

func cloneOrder(o rental.Order) rental.Order {
	items := make([]rental.OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	if o.Delivery != nil {
		d := *o.Delivery
		o.Delivery = &d
	}
	return o
}
