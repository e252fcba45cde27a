package rental

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrLockTimeout       = errors.New("lock timeout") // retryable with backoff
)

// StockShort describes one toy whose effective availability could not
// cover the requested quantity.
type StockShort struct {
	ToyID     string `json:"toy_id"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

type InsufficientStockError struct {
	Details []StockShort
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, fmt.Sprintf("%s required=%d available=%d", d.ToyID, d.Required, d.Available))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

func IsInsufficientStock(err error) bool {
	var ise *InsufficientStockError
	return errors.As(err, &ise)
}
