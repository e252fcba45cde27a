package rental

import (
	"testing"
	"time"
)

func TestApplyAdjustment(t *testing.T) {
	now := time.Now().UTC()
	base := Toy{ID: "t1", StockQuantity: 5, AvailableQuantity: 5, Status: ToyAvailable, TimesRented: 3}

	tests := []struct {
		name          string
		toy           Toy
		delta         int
		opts          AdjustOpts
		wantStock     int
		wantAvailable int
		wantStatus    ToyStatus
		wantRented    int
		wantClamped   bool
	}{
		{
			name:          "consume units with reservation",
			toy:           base,
			delta:         -2,
			opts:          AdjustOpts{ForceStatus: ToyReserved, RentalDelta: 2},
			wantStock:     3,
			wantAvailable: 3,
			wantStatus:    ToyReserved,
			wantRented:    5,
		},
		{
			name:          "credit units back",
			toy:           Toy{ID: "t1", StockQuantity: 3, AvailableQuantity: 3, Status: ToyReserved, TimesRented: 5},
			delta:         2,
			opts:          AdjustOpts{ForceStatus: ToyCleaning},
			wantStock:     5,
			wantAvailable: 5,
			wantStatus:    ToyCleaning,
			wantRented:    5,
		},
		{
			name:          "status-only adjustment",
			toy:           Toy{ID: "t1", StockQuantity: 3, AvailableQuantity: 3, Status: ToyReserved},
			delta:         0,
			opts:          AdjustOpts{ForceStatus: ToyRented},
			wantStock:     3,
			wantAvailable: 3,
			wantStatus:    ToyRented,
		},
		{
			name:          "underflow clamps to zero",
			toy:           Toy{ID: "t1", StockQuantity: 1, AvailableQuantity: 1, Status: ToyAvailable},
			delta:         -3,
			wantStock:     0,
			wantAvailable: 0,
			wantStatus:    ToyMaintenance,
			wantClamped:   true,
		},
		{
			name:          "over-credit clamps available to physical",
			toy:           Toy{ID: "t1", StockQuantity: 5, AvailableQuantity: 5, Status: ToyCleaning},
			delta:         2,
			wantStock:     7,
			wantAvailable: 7,
			wantStatus:    ToyAvailable,
		},
		{
			name:          "available never exceeds reduced physical",
			toy:           Toy{ID: "t1", StockQuantity: 5, AvailableQuantity: 2, Status: ToyAvailable},
			delta:         -4,
			wantStock:     1,
			wantAvailable: 0,
			wantStatus:    ToyAvailable,
			wantClamped:   true,
		},
		{
			name:          "rented status left alone without force",
			toy:           Toy{ID: "t1", StockQuantity: 4, AvailableQuantity: 2, Status: ToyRented},
			delta:         0,
			wantStock:     4,
			wantAvailable: 2,
			wantStatus:    ToyRented,
		},
		{
			name:          "zero physical derives maintenance",
			toy:           Toy{ID: "t1", StockQuantity: 1, AvailableQuantity: 1, Status: ToyAvailable},
			delta:         -1,
			wantStock:     0,
			wantAvailable: 0,
			wantStatus:    ToyMaintenance,
		},
		{
			name:          "rental counter clamps at zero",
			toy:           Toy{ID: "t1", StockQuantity: 2, AvailableQuantity: 2, Status: ToyAvailable, TimesRented: 1},
			delta:         0,
			opts:          AdjustOpts{ForceStatus: ToyAvailable, RentalDelta: -4},
			wantStock:     2,
			wantAvailable: 2,
			wantStatus:    ToyAvailable,
			wantRented:    0,
			wantClamped:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clamped := ApplyAdjustment(tt.toy, tt.delta, tt.opts, now)
			if got.StockQuantity != tt.wantStock {
				t.Errorf("stock = %d, want %d", got.StockQuantity, tt.wantStock)
			}
			if got.AvailableQuantity != tt.wantAvailable {
				t.Errorf("available = %d, want %d", got.AvailableQuantity, tt.wantAvailable)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", got.Status, tt.wantStatus)
			}
			if got.TimesRented != tt.wantRented {
				t.Errorf("timesRented = %d, want %d", got.TimesRented, tt.wantRented)
			}
			if clamped != tt.wantClamped {
				t.Errorf("clamped = %v, want %v", clamped, tt.wantClamped)
			}
			if got.AvailableQuantity < 0 || got.AvailableQuantity > got.StockQuantity {
				t.Errorf("invariant broken: available=%d stock=%d", got.AvailableQuantity, got.StockQuantity)
			}
			if got.TimesRented < 0 {
				t.Errorf("invariant broken: timesRented=%d", got.TimesRented)
			}
		})
	}
}

func TestEffectiveAvailable(t *testing.T) {
	if got := (Toy{StockQuantity: 4, AvailableQuantity: 2}).EffectiveAvailable(); got != 2 {
		t.Errorf("EffectiveAvailable = %d, want 2", got)
	}
	// zero available falls back to physical stock
	if got := (Toy{StockQuantity: 4, AvailableQuantity: 0}).EffectiveAvailable(); got != 4 {
		t.Errorf("EffectiveAvailable = %d, want 4", got)
	}
}

func TestOrderNumber(t *testing.T) {
	if got := OrderNumber(0); got != "LOUAAB-N-0001" {
		t.Errorf("OrderNumber(0) = %q", got)
	}
	if got := OrderNumber(41); got != "LOUAAB-N-0042" {
		t.Errorf("OrderNumber(41) = %q", got)
	}
	if got := OrderNumber(9999); got != "LOUAAB-N-10000" {
		t.Errorf("OrderNumber(9999) = %q", got)
	}
}
