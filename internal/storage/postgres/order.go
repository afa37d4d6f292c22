package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, number, tracking_number, owner, lines, subtotal,
		delivery_fee, discount, total, currency, coupon_code, payment_method, payment_ref,
		status, address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	listOrdersByOwnerSQL = `SELECT id, number, tracking_number, owner, lines, subtotal,
		delivery_fee, discount, total, currency, coupon_code, payment_method, payment_ref,
		status, address, created_at
		FROM orders
		WHERE owner = $1 AND ($2::text = '' OR status = $2::text)
		ORDER BY created_at DESC, id DESC`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. Lines and the address are serialized to JSON
// for storage in JSONB columns.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return errors.Wrap(err, "marshal order lines")
	}
	addressJSON, err := json.Marshal(o.Address)
	if err != nil {
		return errors.Wrap(err, "marshal order address")
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.Number, o.TrackingNumber, o.Owner, linesJSON, o.Subtotal,
		o.DeliveryFee, o.Discount, o.Total, o.Currency, o.CouponCode,
		string(o.PaymentMethod), o.PaymentRef, string(o.Status), addressJSON, o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "create order %q", o.ID)
	}
	return nil
}

func (r *OrderRepository) ListByOwner(ctx context.Context, owner string, status order.Status) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByOwnerSQL, owner, string(status))
	if err != nil {
		return nil, errors.Wrapf(err, "list orders for %q", owner)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrapf(err, "list orders for %q", owner)
	}
	return orders, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o           order.Order
		linesJSON   []byte
		addressJSON []byte
		subtotal    decimal.Decimal
		deliveryFee decimal.Decimal
		discount    decimal.Decimal
		total       decimal.Decimal
		method      string
		status      string
		createdAt   time.Time
	)
	if err := row.Scan(
		&o.ID, &o.Number, &o.TrackingNumber, &o.Owner, &linesJSON, &subtotal,
		&deliveryFee, &discount, &total, &o.Currency, &o.CouponCode, &method, &o.PaymentRef,
		&status, &addressJSON, &createdAt,
	); err != nil {
		return o, err
	}
	if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
		return o, errors.Wrap(err, "unmarshal order lines")
	}
	if err := json.Unmarshal(addressJSON, &o.Address); err != nil {
		return o, errors.Wrap(err, "unmarshal order address")
	}
	o.Subtotal = subtotal
	o.DeliveryFee = deliveryFee
	o.Discount = discount
	o.Total = total
	o.PaymentMethod = order.PaymentMethod(method)
	o.Status = order.Status(status)
	o.CreatedAt = createdAt.UTC()
	return o, nil
}
