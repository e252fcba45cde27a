package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/louaab/rental-backend/internal/rental"
	"github.com/louaab/rental-backend/internal/redisx"
	"github.com/redis/go-redis/v9"
)

type ToysHandler struct {
	Toys     rental.ToyStore
	Ledger   rental.Ledger
	Redis    *redis.Client
	Validate *validator.Validate
}

// AdjustStockReq is the admin stock correction: delta moves physical and
// available stock together, status overrides the derived toy status.
type AdjustStockReq struct {
	Delta       int    `json:"delta"`
	Status      string `json:"status,omitempty"`
	RentalDelta int    `json:"rental_delta,omitempty"`
}

func (h *ToysHandler) Register(r *chi.Mux) {
	r.Get("/toys/{id}", h.getToy)
	r.Get("/toys/{id}/stock", h.getStock)
	r.Post("/toys/{id}/stock", h.adjustStock)
}

func (h *ToysHandler) getToy(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	t, err := h.Toys.GetToy(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// getStock serves the live availability widget: cache first, store after.
func (h *ToysHandler) getStock(w http.ResponseWriter, r *http.Request) {
	toyID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyToyStock, toyID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	t, err := h.Toys.GetToy(ctx, toyID)
	if err != nil {
		writeError(w, err)
		return
	}
	ev := rental.StockChangedEvent{
		ToyID:             t.ID,
		StockQuantity:     t.StockQuantity,
		AvailableQuantity: t.AvailableQuantity,
		Status:            t.Status,
		Timestamp:         t.UpdatedAt,
	}
	if h.Redis != nil {
		b, _ := json.Marshal(ev)
		_ = h.Redis.Set(ctx, key, b, redisx.TTLToyStock).Err()
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *ToysHandler) adjustStock(w http.ResponseWriter, r *http.Request) {
	toyID := chi.URLParam(r, "id")
	var req AdjustStockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Status != "" {
		switch rental.ToyStatus(req.Status) {
		case rental.ToyAvailable, rental.ToyReserved, rental.ToyRented,
			rental.ToyCleaning, rental.ToyMaintenance, rental.ToyRetired:
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown toy status %q", req.Status)})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	t, err := h.Ledger.Adjust(ctx, toyID, req.Delta, rental.AdjustOpts{
		ForceStatus: rental.ToyStatus(req.Status),
		RentalDelta: req.RentalDelta,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
