package rental

const (
	TopicStockChanged = "toy.stock.changed"
	TopicOrderEvents  = "order.events"
)

// Partition key = toy_id: semua stock event utk 1 jouet maintain urutan.
func StockPartitionKey(toyID string) []byte { return []byte(toyID) }

// Partition key = order_id utk event order.
func OrderPartitionKey(orderID string) []byte { return []byte(orderID) }
