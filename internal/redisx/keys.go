package redisx

import "time"

const (
	// Live availability cache per jouet: toy_stock:{toy_id} ->
	// {"stock_quantity":..,"available_quantity":..,"status":".."}
	KeyToyStock = "toy_stock:%s"

	// Cache status order: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLToyStock    = 10 * time.Minute
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
