package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/louaab/rental-backend/internal/rental"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []rental.StockChangedEvent
}

func (n *recordingNotifier) StockChanged(ev rental.StockChangedEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func seedToy(s *Store, id string, stock int) {
	s.PutToy(rental.Toy{
		ID: id, Name: "toy " + id, Status: rental.ToyAvailable,
		StockQuantity: stock, AvailableQuantity: stock,
	})
}

func TestAdjustNotFound(t *testing.T) {
	s := New()
	_, err := s.Adjust(context.Background(), "missing", -1, rental.AdjustOpts{})
	if !errors.Is(err, rental.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAdjustSerializesPerToy(t *testing.T) {
	s := New()
	seedToy(s, "t1", 100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Adjust(context.Background(), "t1", -1, rental.AdjustOpts{}); err != nil {
				t.Errorf("adjust: %v", err)
			}
		}()
	}
	wg.Wait()

	toy, err := s.GetToy(context.Background(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	if toy.StockQuantity != 0 || toy.AvailableQuantity != 0 {
		t.Errorf("stock=%d available=%d, want 0/0", toy.StockQuantity, toy.AvailableQuantity)
	}
}

func TestLockTimeout(t *testing.T) {
	s := New()
	s.LockWait = 50 * time.Millisecond
	seedToy(s, "t1", 1)

	release, err := s.acquire(context.Background(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	_, err = s.Adjust(context.Background(), "t1", -1, rental.AdjustOpts{})
	if !errors.Is(err, rental.ErrLockTimeout) {
		t.Fatalf("err = %v, want ErrLockTimeout", err)
	}
}

func TestDifferentToysDoNotBlock(t *testing.T) {
	s := New()
	s.LockWait = 5 * time.Second
	seedToy(s, "a", 1)
	seedToy(s, "b", 1)

	release, err := s.acquire(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	done := make(chan error, 1)
	go func() {
		_, err := s.Adjust(context.Background(), "b", -1, rental.AdjustOpts{})
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("adjust b: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("adjust on toy b blocked behind lock on toy a")
	}
}

func TestNotificationsPreserveCommitOrder(t *testing.T) {
	s := New()
	n := &recordingNotifier{}
	s.Notifier = n
	seedToy(s, "t1", 10)

	for i := 0; i < 5; i++ {
		if _, err := s.Adjust(context.Background(), "t1", -1, rental.AdjustOpts{}); err != nil {
			t.Fatal(err)
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) != 5 {
		t.Fatalf("got %d events, want 5", len(n.events))
	}
	for i, ev := range n.events {
		want := 10 - (i + 1)
		if ev.StockQuantity != want {
			t.Errorf("event %d stock = %d, want %d", i, ev.StockQuantity, want)
		}
	}
}

func TestApplyTransitionAllOrNothing(t *testing.T) {
	s := New()
	seedToy(s, "plenty", 10)
	seedToy(s, "scarce", 1)

	order := rental.Order{
		ID:     "o1",
		Status: rental.StatusDraft,
		Items: []rental.OrderItem{
			{ToyID: "plenty", Quantity: 2},
			{ToyID: "scarce", Quantity: 3},
		},
	}
	if err := s.CreateOrder(context.Background(), &order); err != nil {
		t.Fatal(err)
	}

	adjs := []rental.Adjustment{
		{ToyID: "plenty", Delta: -2, Require: 2, Opts: rental.AdjustOpts{ForceStatus: rental.ToyReserved, RentalDelta: 2}},
		{ToyID: "scarce", Delta: -3, Require: 3, Opts: rental.AdjustOpts{ForceStatus: rental.ToyReserved, RentalDelta: 3}},
	}
	_, err := s.ApplyTransition(context.Background(), "o1", rental.StatusDraft, rental.StatusConfirmed, adjs)

	var ise *rental.InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if len(ise.Details) != 1 || ise.Details[0].ToyID != "scarce" {
		t.Fatalf("details = %+v", ise.Details)
	}

	// nothing moved: not the toy that had enough, not the order status
	plenty, _ := s.GetToy(context.Background(), "plenty")
	if plenty.StockQuantity != 10 || plenty.AvailableQuantity != 10 {
		t.Errorf("plenty mutated: %+v", plenty)
	}
	got, _ := s.GetOrder(context.Background(), "o1")
	if got.Status != rental.StatusDraft {
		t.Errorf("order status = %s, want draft", got.Status)
	}
}

func TestApplyTransitionStatusCAS(t *testing.T) {
	s := New()
	seedToy(s, "t1", 5)
	order := rental.Order{ID: "o1", Status: rental.StatusConfirmed}
	if err := s.CreateOrder(context.Background(), &order); err != nil {
		t.Fatal(err)
	}

	_, err := s.ApplyTransition(context.Background(), "o1", rental.StatusDraft, rental.StatusConfirmed, nil)
	if !errors.Is(err, rental.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}
