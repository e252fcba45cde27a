// Package stockfeed consumes the stock-changed stream and maintains the
// per-toy live availability cache the storefront widget reads. It is a
// subscriber of the notifier: slow or down, the ledger never notices.
package stockfeed

import (
	"context"
	"encoding/json"
	"fmt"

	kafkax "github.com/louaab/rental-backend/internal/kafka"
	"github.com/louaab/rental-backend/internal/rental"
	"github.com/louaab/rental-backend/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Service struct {
	Redis       *redis.Client
	ServiceName string
	Log         *zap.Logger
}

// HandleStockChanged: dipasang sebagai handler consumer.
func (s *Service) HandleStockChanged(ctx context.Context, m kafkago.Message) error {
	var env rental.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != rental.EventStockChanged {
		return nil // ignore
	}

	// dedup via Redis (pakai event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	ev, err := kafkax.UnwrapPayload[rental.StockChangedEvent](env.Payload)
	if err != nil {
		return err
	}

	// jangan timpa cache dengan event yang lebih tua
	key := fmt.Sprintf(redisx.KeyToyStock, ev.ToyID)
	if cur, err := s.Redis.Get(ctx, key).Result(); err == nil && cur != "" {
		var cached rental.StockChangedEvent
		if json.Unmarshal([]byte(cur), &cached) == nil && cached.Timestamp.After(ev.Timestamp) {
			return nil
		}
	}
	if err := s.Redis.Set(ctx, key, kafkax.MustMarshal(ev), redisx.TTLToyStock).Err(); err != nil {
		return err
	}
	if s.Log != nil {
		s.Log.Debug("toy stock cache updated",
			zap.String("toy_id", ev.ToyID),
			zap.Int("stock", ev.StockQuantity),
			zap.Int("available", ev.AvailableQuantity))
	}
	return nil
}
