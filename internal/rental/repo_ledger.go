package rental

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// LedgerRepo is the Postgres ledger: per-toy serialization via
// SELECT ... FOR UPDATE, bounded by lock_timeout so a stuck peer surfaces
// as ErrLockTimeout (retryable) instead of hanging the request.
type LedgerRepo struct {
	DB       *pgxpool.Pool
	Notifier Notifier
	LockWait time.Duration
	Log      *zap.Logger
}

const defaultLockWait = 3 * time.Second

func (r *LedgerRepo) lockWait() time.Duration {
	if r.LockWait > 0 {
		return r.LockWait
	}
	return defaultLockWait
}

func (r *LedgerRepo) notify(toys []Toy, at time.Time) {
	if r.Notifier == nil {
		return
	}
	for _, t := range toys {
		r.Notifier.StockChanged(StockChangedEvent{
			ToyID:             t.ID,
			StockQuantity:     t.StockQuantity,
			AvailableQuantity: t.AvailableQuantity,
			Status:            t.Status,
			Timestamp:         at,
		})
	}
}

func (r *LedgerRepo) Adjust(ctx context.Context, toyID string, delta int, opts AdjustOpts) (Toy, error) {
	now := time.Now().UTC()
	var updated Toy

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		toy, err := lockToy(ctx, tx, toyID)
		if err != nil {
			return err
		}
		var clamped bool
		updated, clamped = ApplyAdjustment(toy, delta, opts, now)
		if clamped && r.Log != nil {
			r.Log.Warn("stock adjustment clamped",
				zap.String("toy_id", toyID), zap.Int("delta", delta),
				zap.Int("stock", updated.StockQuantity), zap.Int("available", updated.AvailableQuantity))
		}
		return writeToy(ctx, tx, updated)
	})
	if err != nil {
		return Toy{}, err
	}

	r.notify([]Toy{updated}, now)
	return updated, nil
}

func (r *LedgerRepo) ApplyTransition(ctx context.Context, orderID string, from, to Status, adjs []Adjustment) ([]Toy, error) {
	now := time.Now().UTC()
	var updated []Toy

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		// Status CAS dulu: transisi ganda pada order yang sama kalah di sini.
		ct, err := tx.Exec(ctx, `UPDATE orders SET status=$3, updated_at=$4 WHERE id=$1 AND status=$2`,
			orderID, string(from), string(to), now)
		if err != nil {
			return err
		}
		if ct.RowsAffected() != 1 {
			var cur string
			err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&cur)
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
			}
			if err != nil {
				return err
			}
			return fmt.Errorf("order %s: %s -> %s (current %s): %w", orderID, from, to, cur, ErrInvalidTransition)
		}

		// Lock toys dalam urutan id tetap supaya dua transisi yang
		// menyentuh toy yang sama tidak saling deadlock.
		sorted := make([]Adjustment, len(adjs))
		copy(sorted, adjs)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].ToyID < sorted[j].ToyID })

		toys := make(map[string]Toy, len(sorted))
		var shorts []StockShort
		for _, a := range sorted {
			toy, err := lockToy(ctx, tx, a.ToyID)
			if err != nil {
				return err
			}
			toys[a.ToyID] = toy
			if a.Require > 0 && toy.EffectiveAvailable() < a.Require {
				shorts = append(shorts, StockShort{
					ToyID: a.ToyID, Required: a.Require, Available: toy.EffectiveAvailable(),
				})
			}
		}
		if len(shorts) > 0 {
			return &InsufficientStockError{Details: shorts} // rollback via defer
		}

		for _, a := range sorted {
			// toys map di-update per step supaya dua line untuk toy yang
			// sama tidak menimpa hasil satu sama lain.
			next, clamped := ApplyAdjustment(toys[a.ToyID], a.Delta, a.Opts, now)
			if clamped && r.Log != nil {
				r.Log.Warn("stock adjustment clamped",
					zap.String("order_id", orderID), zap.String("toy_id", a.ToyID),
					zap.Int("delta", a.Delta))
			}
			if err := writeToy(ctx, tx, next); err != nil {
				return err
			}
			toys[a.ToyID] = next
			updated = append(updated, next)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.notify(updated, now)
	return updated, nil
}

func (r *LedgerRepo) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, fmt.Sprintf(`SET LOCAL lock_timeout = '%dms'`, r.lockWait().Milliseconds())); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return mapLockErr(err)
	}
	return tx.Commit(ctx)
}

func lockToy(ctx context.Context, tx pgx.Tx, id string) (Toy, error) {
	return scanToy(tx.QueryRow(ctx, `
		SELECT id, name, COALESCE(slug,''), COALESCE(condition,''),
			stock_quantity, available_quantity, status, times_rented, created_at, updated_at
		FROM toys WHERE id=$1 FOR UPDATE`, id), id)
}

func writeToy(ctx context.Context, tx pgx.Tx, t Toy) error {
	_, err := tx.Exec(ctx, `
		UPDATE toys SET stock_quantity=$2, available_quantity=$3, status=$4,
			times_rented=$5, updated_at=$6
		WHERE id=$1`,
		t.ID, t.StockQuantity, t.AvailableQuantity, string(t.Status), t.TimesRented, t.UpdatedAt)
	return err
}

// 55P03 = lock_not_available (lock_timeout expired)
func mapLockErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "55P03" {
		return fmt.Errorf("%v: %w", err, ErrLockTimeout)
	}
	return err
}
