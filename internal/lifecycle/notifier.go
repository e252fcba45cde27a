package lifecycle

import (
	"time"

	"github.com/google/uuid"
	kafkax "github.com/louaab/rental-backend/internal/kafka"
	"github.com/louaab/rental-backend/internal/rental"
	kafkago "github.com/segmentio/kafka-go"
)

// KafkaNotifier publishes stock-change events through the async producer.
// Publish only enqueues, so the ledger's commit path never waits on the
// broker, and the single writer goroutine plus per-toy partition key keep
// events for one toy in commit order.
type KafkaNotifier struct {
	Stock       *kafkax.Producer
	Orders      *kafkax.Producer
	ServiceName string
}

func (n *KafkaNotifier) StockChanged(ev rental.StockChangedEvent) {
	if n.Stock == nil {
		return
	}
	env := rental.Envelope{
		EventID:       uuid.NewString(),
		EventType:     rental.EventStockChanged,
		EventVersion:  1,
		OccurredAt:    ev.Timestamp,
		Producer:      n.ServiceName,
		CorrelationID: ev.ToyID,
		Payload:       kafkax.MustMarshal(ev),
	}
	n.Stock.Publish(rental.StockPartitionKey(ev.ToyID), kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(rental.EventStockChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (n *KafkaNotifier) PublishOrderEvent(eventType, orderID string, payload any) {
	if n.Orders == nil {
		return
	}
	env := rental.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      n.ServiceName,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	n.Orders.Publish(rental.OrderPartitionKey(orderID), kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
