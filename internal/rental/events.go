package rental

import (
	"encoding/json"
	"time"
)

const (
	EventStockChanged       = "StockChanged"
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "rental-api"
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----

// StockChangedEvent is what the notifier publishes after every committed
// ledger adjustment; the storefront's live-availability widget consumes it.
type StockChangedEvent struct {
	ToyID             string    `json:"toy_id"`
	StockQuantity     int       `json:"stock_quantity"`
	AvailableQuantity int       `json:"available_quantity"`
	Status            ToyStatus `json:"status"`
	Timestamp         time.Time `json:"timestamp"`
}

type OrderCreatedPayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	CustomerID  string `json:"customer_id"`
	ItemCount   int    `json:"item_count"`
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
}
