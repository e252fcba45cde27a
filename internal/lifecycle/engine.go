// Package lifecycle drives order status transitions and decides which
// inventory adjustments each transition requires. Stock is never touched
// at creation; draft orders are non-binding holds that get revalidated and
// reserved on confirmation.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/louaab/rental-backend/internal/rental"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrNoItems         = errors.New("order has no items")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

type Engine struct {
	Orders    rental.OrderStore
	Toys      rental.ToyStore
	Customers rental.CustomerStore
	Ledger    rental.Ledger
	Events    EventPublisher // optional
	Log       *zap.Logger
}

// EventPublisher is the order-event half of the notification layer; stock
// events go out through the ledger's rental.Notifier instead.
type EventPublisher interface {
	PublishOrderEvent(eventType, orderID string, payload any)
}

func (e *Engine) log() *zap.Logger {
	if e.Log != nil {
		return e.Log
	}
	return zap.NewNop()
}

// CreateOrder validates and materializes a draft order. Availability is
// checked here but not reserved: the binding reservation happens on the
// draft -> confirmed transition.
func (e *Engine) CreateOrder(ctx context.Context, in rental.CreateOrderInput) (rental.Order, error) {
	if len(in.Items) == 0 {
		return rental.Order{}, ErrNoItems
	}
	customer, err := e.Customers.GetCustomer(ctx, in.CustomerID)
	if err != nil {
		return rental.Order{}, err
	}

	now := time.Now().UTC()
	items := make([]rental.OrderItem, 0, len(in.Items))
	var shorts []rental.StockShort
	for _, line := range in.Items {
		if line.Quantity < 1 {
			return rental.Order{}, fmt.Errorf("toy %s: %w", line.ToyID, ErrInvalidQuantity)
		}
		toy, err := e.Toys.GetToy(ctx, line.ToyID)
		if err != nil {
			return rental.Order{}, err
		}
		if toy.EffectiveAvailable() < line.Quantity {
			shorts = append(shorts, rental.StockShort{
				ToyID: toy.ID, Required: line.Quantity, Available: toy.EffectiveAvailable(),
			})
			continue
		}
		price, err := decimal.NewFromString(line.RentalPrice)
		if err != nil {
			return rental.Order{}, fmt.Errorf("toy %s: bad rental price %q: %w", line.ToyID, line.RentalPrice, err)
		}
		start := line.RentalStartDate
		if start.IsZero() {
			start = now
		}
		items = append(items, rental.OrderItem{
			ID:                 uuid.NewString(),
			ToyID:              line.ToyID,
			Quantity:           line.Quantity,
			RentalPrice:        price,
			RentalDurationDays: line.RentalDurationDays,
			RentalStartDate:    start,
			ConditionBefore:    toy.Condition,
		})
	}
	if len(shorts) > 0 {
		return rental.Order{}, &rental.InsufficientStockError{Details: shorts}
	}

	deliveryType := in.DeliveryType
	if deliveryType == "" {
		deliveryType = "delivery"
	}
	recipient := in.RecipientName
	if recipient == "" {
		recipient = customer.FirstName + " " + customer.LastName
	}
	phone := in.RecipientPhone
	if phone == "" {
		phone = customer.Phone
	}

	o := rental.Order{
		ID:         uuid.NewString(),
		CustomerID: customer.ID,
		Status:     rental.StatusDraft,
		Items:      items,
		CreatedAt:  now,
		UpdatedAt:  now,
		Delivery: &rental.Delivery{
			ID:                uuid.NewString(),
			DeliveryType:      deliveryType,
			Status:            rental.DeliveryScheduled,
			ScheduledDate:     in.DeliveryDate,
			ScheduledTimeSlot: in.DeliveryTimeSlot,
			RecipientName:     recipient,
			RecipientPhone:    phone,
		},
	}
	if err := e.Orders.CreateOrder(ctx, &o); err != nil {
		return rental.Order{}, err
	}

	e.log().Info("order created",
		zap.String("order_id", o.ID), zap.String("order_number", o.OrderNumber),
		zap.Int("items", len(o.Items)))
	if e.Events != nil {
		e.Events.PublishOrderEvent(rental.EventOrderCreated, o.ID, rental.OrderCreatedPayload{
			OrderID: o.ID, OrderNumber: o.OrderNumber, CustomerID: o.CustomerID, ItemCount: len(o.Items),
		})
	}
	return o, nil
}

// Transition moves an order to target per the transition table and applies
// the required ledger adjustments as one all-or-nothing unit.
func (e *Engine) Transition(ctx context.Context, orderID string, target rental.Status) (rental.Order, error) {
	o, err := e.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return rental.Order{}, err
	}
	if !rental.CanTransition(o.Status, target) {
		return rental.Order{}, fmt.Errorf("order %s: %s -> %s: %w", orderID, o.Status, target, rental.ErrInvalidTransition)
	}

	adjs := adjustmentsFor(o, o.Status, target)
	if _, err := e.Ledger.ApplyTransition(ctx, orderID, o.Status, target, adjs); err != nil {
		return rental.Order{}, err
	}

	e.log().Info("order transitioned",
		zap.String("order_id", orderID), zap.String("from", string(o.Status)), zap.String("to", string(target)))
	if e.Events != nil {
		e.Events.PublishOrderEvent(rental.EventOrderStatusChanged, orderID, rental.OrderStatusChangedPayload{
			OrderID: orderID, From: o.Status, To: target,
		})
	}
	return e.Orders.GetOrder(ctx, orderID)
}

// Cancel is the constrained draft|confirmed -> cancelled transition; a
// confirmed order gives its reserved stock back, a draft never took any.
func (e *Engine) Cancel(ctx context.Context, orderID string) (rental.Order, error) {
	return e.Transition(ctx, orderID, rental.StatusCancelled)
}

// Reset is the administrative any -> draft override. Quantities are only
// credited back when the previous status had actually consumed stock
// (confirmed or delivered); otherwise only the toy status and the rental
// counter are rewound.
func (e *Engine) Reset(ctx context.Context, orderID string) (rental.Order, error) {
	o, err := e.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return rental.Order{}, err
	}

	adjs := make([]rental.Adjustment, 0, len(o.Items))
	credit := o.Status == rental.StatusConfirmed || o.Status == rental.StatusDelivered
	for _, it := range o.Items {
		delta := 0
		if credit {
			delta = it.Quantity
		}
		adjs = append(adjs, rental.Adjustment{
			ToyID: it.ToyID,
			Delta: delta,
			Opts:  rental.AdjustOpts{ForceStatus: rental.ToyAvailable, RentalDelta: -it.Quantity},
		})
	}
	if _, err := e.Ledger.ApplyTransition(ctx, orderID, o.Status, rental.StatusDraft, adjs); err != nil {
		return rental.Order{}, err
	}

	e.log().Info("order reset",
		zap.String("order_id", orderID), zap.String("from", string(o.Status)))
	if e.Events != nil {
		e.Events.PublishOrderEvent(rental.EventOrderStatusChanged, orderID, rental.OrderStatusChangedPayload{
			OrderID: orderID, From: o.Status, To: rental.StatusDraft,
		})
	}
	return e.Orders.GetOrder(ctx, orderID)
}

// Stats returns order counts for the admin dashboard.
func (e *Engine) Stats(ctx context.Context) (total int, byStatus map[rental.Status]int, err error) {
	if total, err = e.Orders.CountOrders(ctx); err != nil {
		return 0, nil, err
	}
	if byStatus, err = e.Orders.CountByStatus(ctx); err != nil {
		return 0, nil, err
	}
	return total, byStatus, nil
}

// adjustmentsFor maps a legal (from, to) pair onto the per-item ledger
// calls it requires.
func adjustmentsFor(o rental.Order, from, to rental.Status) []rental.Adjustment {
	adjs := make([]rental.Adjustment, 0, len(o.Items))
	for _, it := range o.Items {
		var a rental.Adjustment
		a.ToyID = it.ToyID
		switch {
		case from == rental.StatusDraft && to == rental.StatusConfirmed:
			a.Delta = -it.Quantity
			a.Opts = rental.AdjustOpts{ForceStatus: rental.ToyReserved, RentalDelta: it.Quantity}
			a.Require = it.Quantity
		case from == rental.StatusConfirmed && to == rental.StatusDelivered:
			a.Opts = rental.AdjustOpts{ForceStatus: rental.ToyRented}
		case from == rental.StatusDelivered && to == rental.StatusReturned:
			a.Delta = it.Quantity
			a.Opts = rental.AdjustOpts{ForceStatus: rental.ToyCleaning}
		case from == rental.StatusReturned && to == rental.StatusCompleted:
			a.Opts = rental.AdjustOpts{ForceStatus: rental.ToyAvailable}
		case from == rental.StatusDelivered && to == rental.StatusCompleted:
			a.Delta = it.Quantity
			a.Opts = rental.AdjustOpts{ForceStatus: rental.ToyAvailable}
		case from == rental.StatusConfirmed && to == rental.StatusCancelled:
			a.Delta = it.Quantity
			a.Opts = rental.AdjustOpts{ForceStatus: rental.ToyAvailable, RentalDelta: -it.Quantity}
		case from == rental.StatusDraft && to == rental.StatusCancelled:
			continue // stock was never consumed
		}
		adjs = append(adjs, a)
	}
	return adjs
}
