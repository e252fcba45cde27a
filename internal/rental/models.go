package rental

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ToyStatus string

const (
	ToyAvailable   ToyStatus = "available"
	ToyReserved    ToyStatus = "reserved"
	ToyRented      ToyStatus = "rented"
	ToyCleaning    ToyStatus = "cleaning"
	ToyMaintenance ToyStatus = "maintenance"
	ToyRetired     ToyStatus = "retired"
)

type Toy struct {
	ID                string
	Name              string
	Slug              string
	Condition         string
	StockQuantity     int // total physical units owned
	AvailableQuantity int // units currently rentable, never above StockQuantity
	Status            ToyStatus
	TimesRented       int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Customer struct {
	ID        string
	FirstName string
	LastName  string
	Phone     string
	Email     string
}

type Order struct {
	ID          string
	OrderNumber string
	CustomerID  string
	Status      Status // lihat status.go
	Items       []OrderItem
	Delivery    *Delivery
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type OrderItem struct {
	ID                 string
	OrderID            string
	ToyID              string
	Quantity           int
	RentalPrice        decimal.Decimal // unit price agreed at creation, never recomputed
	RentalDurationDays int
	RentalStartDate    time.Time
	ConditionBefore    string
	ConditionAfter     string
}

type DeliveryStatus string

const (
	DeliveryScheduled DeliveryStatus = "scheduled"
	DeliveryDone      DeliveryStatus = "done"
	DeliveryCancelled DeliveryStatus = "cancelled"
)

type Delivery struct {
	ID                string
	OrderID           string
	DeliveryType      string
	Status            DeliveryStatus
	ScheduledDate     time.Time
	ScheduledTimeSlot string
	RecipientName     string
	RecipientPhone    string
}

// OrderNumber formats the human-readable number assigned at creation.
// seq is the count of existing orders; advisory only, not guaranteed
// unique under concurrent creation.
func OrderNumber(seq int) string {
	return fmt.Sprintf("LOUAAB-N-%04d", seq+1)
}

// EffectiveAvailable is the quantity order validation checks against:
// availableQuantity when it is set, otherwise the physical stock.
func (t Toy) EffectiveAvailable() int {
	if t.AvailableQuantity > 0 {
		return t.AvailableQuantity
	}
	return t.StockQuantity
}
