package rental

import "time"

// AdjustOpts carries the optional parts of a ledger adjustment.
type AdjustOpts struct {
	ForceStatus ToyStatus // explicit status override, empty = derive
	RentalDelta int       // signed change to the lifetime rental counter
}

// Adjustment is one per-toy ledger call inside an order transition.
// Require > 0 makes the ledger verify the toy's effective availability
// covers that quantity before anything is applied.
type Adjustment struct {
	ToyID   string
	Delta   int
	Opts    AdjustOpts
	Require int
}

// ApplyAdjustment runs the read-modify-write step of a ledger adjustment
// on an already-locked toy snapshot. delta moves both the physical and the
// available count; both are clamped so that 0 <= available <= physical
// always holds. Clamped reports whether clamping changed the effect the
// caller asked for, so it can be logged.
//
// Status derivation: ForceStatus wins; otherwise zero physical stock means
// maintenance, and a toy that is not mid-rental snaps back to available.
func ApplyAdjustment(toy Toy, delta int, opts AdjustOpts, now time.Time) (updated Toy, clamped bool) {
	physical := toy.StockQuantity
	available := toy.AvailableQuantity

	newPhysical := physical + delta
	if newPhysical < 0 {
		newPhysical = 0
		clamped = true
	}
	newAvailable := available + delta
	if newAvailable > newPhysical {
		newAvailable = newPhysical
		clamped = true
	}
	if newAvailable < 0 {
		newAvailable = 0
		clamped = true
	}

	toy.StockQuantity = newPhysical
	toy.AvailableQuantity = newAvailable

	switch {
	case opts.ForceStatus != "":
		toy.Status = opts.ForceStatus
	case newPhysical <= 0:
		toy.Status = ToyMaintenance
	case toy.Status != ToyRented && toy.Status != ToyReserved:
		toy.Status = ToyAvailable
	}

	if opts.RentalDelta != 0 {
		toy.TimesRented += opts.RentalDelta
		if toy.TimesRented < 0 {
			toy.TimesRented = 0
			clamped = true
		}
	}

	toy.UpdatedAt = now
	return toy, clamped
}
