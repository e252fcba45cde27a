package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/louaab/rental-backend/internal/lifecycle"
	"github.com/louaab/rental-backend/internal/rental"
	"github.com/louaab/rental-backend/internal/redisx"
	"github.com/redis/go-redis/v9"
)

type OrdersHandler struct {
	Engine   *lifecycle.Engine
	Redis    *redis.Client
	Validate *validator.Validate
}

type OrderLineReq struct {
	ToyID              string `json:"toy_id" validate:"required"`
	Quantity           int    `json:"quantity" validate:"required,min=1"`
	RentalPrice        string `json:"rental_price" validate:"required"`
	RentalDurationDays int    `json:"rental_duration_days" validate:"min=0"`
	RentalStartDate    string `json:"rental_start_date,omitempty"`
}

type CreateOrderReq struct {
	CustomerID       string         `json:"customer_id" validate:"required"`
	Items            []OrderLineReq `json:"items" validate:"required,min=1,dive"`
	DeliveryDate     string         `json:"delivery_date" validate:"required"`
	DeliveryTimeSlot string         `json:"delivery_time_slot,omitempty"`
	DeliveryType     string         `json:"delivery_type,omitempty"`
	RecipientName    string         `json:"recipient_name,omitempty"`
	RecipientPhone   string         `json:"recipient_phone,omitempty"`
}

type TransitionReq struct {
	Status string `json:"status" validate:"required"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders/stats", h.stats)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getOrderStatus)
	r.Post("/orders/{id}/status", h.transition)
	r.Post("/orders/{id}/cancel", h.cancel)
	r.Post("/orders/{id}/reset", h.reset)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var ise *rental.InsufficientStockError
	switch {
	case errors.Is(err, rental.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &ise):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "insufficient stock", "details": ise.Details})
	case errors.Is(err, rental.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, rental.ErrLockTimeout):
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrNoItems), errors.Is(err, lifecycle.ErrInvalidQuantity):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	deliveryDate, err := time.Parse("2006-01-02", req.DeliveryDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delivery_date must be YYYY-MM-DD"})
		return
	}

	in := rental.CreateOrderInput{
		CustomerID:       req.CustomerID,
		DeliveryDate:     deliveryDate,
		DeliveryTimeSlot: req.DeliveryTimeSlot,
		DeliveryType:     req.DeliveryType,
		RecipientName:    req.RecipientName,
		RecipientPhone:   req.RecipientPhone,
	}
	for _, line := range req.Items {
		li := rental.LineInput{
			ToyID:              line.ToyID,
			Quantity:           line.Quantity,
			RentalPrice:        line.RentalPrice,
			RentalDurationDays: line.RentalDurationDays,
		}
		if line.RentalStartDate != "" {
			start, err := time.Parse("2006-01-02", line.RentalStartDate)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "rental_start_date must be YYYY-MM-DD"})
				return
			}
			li.RentalStartDate = start
		}
		in.Items = append(in.Items, li)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Engine.CreateOrder(ctx, in)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, o.ID, o.Status)
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) transition(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	var req TransitionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	target := rental.Status(req.Status)
	if !rental.ValidStatus(target) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown status %q", req.Status)})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Engine.Transition(ctx, orderID, target)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, o.ID, o.Status)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Engine.Cancel(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, o.ID, o.Status)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) reset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Engine.Reset(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, o.ID, o.Status)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Engine.Orders.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	// 2) fallback store
	o, err := h.Engine.Orders.GetOrder(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, o.ID, o.Status)
	writeJSON(w, http.StatusOK, map[string]any{"status": o.Status})
}

func (h *OrdersHandler) stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	total, byStatus, err := h.Engine.Stats(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "by_status": byStatus})
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, orderID string, s rental.Status) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	b, _ := json.Marshal(map[string]any{"status": s})
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
}
