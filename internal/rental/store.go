package rental

import (
	"context"
	"time"
)

// CreateOrderInput is the validated input the engine materializes an order
// from. Prices arrive already resolved by the pricing layer and are copied
// verbatim onto the items.
type CreateOrderInput struct {
	CustomerID       string
	Items            []LineInput
	DeliveryDate     time.Time
	DeliveryTimeSlot string
	DeliveryType     string
	RecipientName    string
	RecipientPhone   string
}

type LineInput struct {
	ToyID              string
	Quantity           int
	RentalPrice        string // decimal string, parsed at creation
	RentalDurationDays int
	RentalStartDate    time.Time
}

type OrderStore interface {
	// CreateOrder persists the order with its items and delivery record in
	// one unit and assigns the order number from the current order count.
	CreateOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, id string) (Order, error)
	CountOrders(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

type ToyStore interface {
	GetToy(ctx context.Context, id string) (Toy, error)
}

type CustomerStore interface {
	GetCustomer(ctx context.Context, id string) (Customer, error)
}

// Ledger is the only path allowed to mutate a toy's stock fields.
type Ledger interface {
	// Adjust runs one atomic read-modify-write on a single toy, serialized
	// against every other adjustment for the same toy id.
	Adjust(ctx context.Context, toyID string, delta int, opts AdjustOpts) (Toy, error)

	// ApplyTransition applies a whole order transition as one
	// all-or-nothing unit: the order's status moves from -> to only if it
	// still is `from` (concurrent double transitions lose here), every
	// Require is checked against effective availability before anything is
	// written, and either all adjustments commit or none do.
	ApplyTransition(ctx context.Context, orderID string, from, to Status, adjs []Adjustment) ([]Toy, error)
}

// Notifier receives a stock-change event after each committed adjustment.
// Implementations must not block or fail the commit path; events for the
// same toy arrive in commit order.
type Notifier interface {
	StockChanged(ev StockChangedEvent)
}

type NopNotifier struct{}

func (NopNotifier) StockChanged(StockChangedEvent) {}
