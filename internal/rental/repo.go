package rental

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repo struct{ DB *pgxpool.Pool }

// CreateOrder: insert order + items + delivery dalam satu tx.
// Order number dihitung dari jumlah order saat ini (advisory, display-only).
func (r *Repo) CreateOrder(ctx context.Context, o *Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if o.OrderNumber == "" {
		var n int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
			return err
		}
		o.OrderNumber = OrderNumber(n)
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, order_number, customer_id, status)
		VALUES ($1, $2, $3, $4)
	`, o.ID, o.OrderNumber, o.CustomerID, string(o.Status))
	if err != nil {
		return err
	}

	for i := range o.Items {
		it := &o.Items[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.OrderID = o.ID
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, toy_id, quantity, rental_price,
				rental_duration_days, rental_start_date, condition_before)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			it.ID, o.ID, it.ToyID, it.Quantity, it.RentalPrice.String(),
			it.RentalDurationDays, it.RentalStartDate, it.ConditionBefore,
		)
		if err != nil {
			return err
		}
	}

	if d := o.Delivery; d != nil {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		d.OrderID = o.ID
		_, err = tx.Exec(ctx, `
			INSERT INTO deliveries(id, order_id, delivery_type, status,
				scheduled_date, scheduled_time_slot, recipient_name, recipient_phone)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			d.ID, o.ID, d.DeliveryType, string(d.Status),
			d.ScheduledDate, d.ScheduledTimeSlot, d.RecipientName, d.RecipientPhone,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *Repo) GetOrder(ctx context.Context, id string) (Order, error) {
	var o Order
	var status string
	err := r.DB.QueryRow(ctx, `
		SELECT id, order_number, customer_id, status, created_at, updated_at
		FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Order{}, err
	}
	o.Status = Status(status)

	rows, err := r.DB.Query(ctx, `
		SELECT id, toy_id, quantity, rental_price, rental_duration_days,
			rental_start_date, COALESCE(condition_before,''), COALESCE(condition_after,'')
		FROM order_items WHERE order_id=$1 ORDER BY id`, id)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it OrderItem
		var price string
		if err := rows.Scan(&it.ID, &it.ToyID, &it.Quantity, &price,
			&it.RentalDurationDays, &it.RentalStartDate, &it.ConditionBefore, &it.ConditionAfter); err != nil {
			return Order{}, err
		}
		it.OrderID = id
		if it.RentalPrice, err = decimal.NewFromString(price); err != nil {
			return Order{}, fmt.Errorf("order %s item %s: bad rental_price: %w", id, it.ID, err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return Order{}, err
	}

	var d Delivery
	var dstatus string
	err = r.DB.QueryRow(ctx, `
		SELECT id, delivery_type, status, scheduled_date,
			COALESCE(scheduled_time_slot,''), COALESCE(recipient_name,''), COALESCE(recipient_phone,'')
		FROM deliveries WHERE order_id=$1`, id).
		Scan(&d.ID, &d.DeliveryType, &dstatus, &d.ScheduledDate,
			&d.ScheduledTimeSlot, &d.RecipientName, &d.RecipientPhone)
	if err == nil {
		d.OrderID = id
		d.Status = DeliveryStatus(dstatus)
		o.Delivery = &d
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return Order{}, err
	}

	return o, nil
}

func (r *Repo) CountOrders(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n)
	return n, err
}

func (r *Repo) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.DB.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[Status]int{}
	for rows.Next() {
		var s string
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[Status(s)] = n
	}
	return out, rows.Err()
}

type ToyRepo struct{ DB *pgxpool.Pool }

func (r *ToyRepo) GetToy(ctx context.Context, id string) (Toy, error) {
	return scanToy(r.DB.QueryRow(ctx, `
		SELECT id, name, COALESCE(slug,''), COALESCE(condition,''),
			stock_quantity, available_quantity, status, times_rented, created_at, updated_at
		FROM toys WHERE id=$1`, id), id)
}

func scanToy(row pgx.Row, id string) (Toy, error) {
	var t Toy
	var status string
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Condition,
		&t.StockQuantity, &t.AvailableQuantity, &status, &t.TimesRented,
		&t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Toy{}, fmt.Errorf("toy %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Toy{}, err
	}
	t.Status = ToyStatus(status)
	return t, nil
}

type CustomerRepo struct{ DB *pgxpool.Pool }

func (r *CustomerRepo) GetCustomer(ctx context.Context, id string) (Customer, error) {
	var c Customer
	err := r.DB.QueryRow(ctx, `
		SELECT id, first_name, last_name, COALESCE(phone,''), COALESCE(email,'')
		FROM customers WHERE id=$1`, id).
		Scan(&c.ID, &c.FirstName, &c.LastName, &c.Phone, &c.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	return c, err
}
