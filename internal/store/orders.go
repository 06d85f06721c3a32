package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Order statuses.
const (
	StatusPaid = "paid"
)

// OrderStore persists completed orders. Orders are written exactly once by
// the fulfillment webhook and read-only everywhere else.
type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

// CreateOrderWithItems writes the order and its items in one transaction,
// so an order can never exist without its items. The unique constraint on
// stripe_session_id makes webhook redelivery a no-op: when the session was
// already recorded, nothing is written and created is false.
func (s *OrderStore) CreateOrderWithItems(ctx context.Context, o Order, items []OrderItem) (orderID string, created bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	o.ID = uuid.New().String()
	o.CreatedAt = time.Now().UTC()

	var insertedID string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (id, user_id, stripe_session_id, amount_total, status,
			customer_ip_address, shipping_street, shipping_city, shipping_postal_code,
			shipping_country, is_gift, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (stripe_session_id) DO NOTHING
		RETURNING id`,
		o.ID, o.UserID, o.StripeSessionID, o.AmountTotal, o.Status,
		o.CustomerIPAddress, o.ShippingStreet, o.ShippingCity, o.ShippingPostalCode,
		o.ShippingCountry, o.IsGift, o.CreatedAt).Scan(&insertedID)
	if errors.Is(err, sql.ErrNoRows) {
		// Redelivered event; the order already exists.
		_ = tx.Rollback()
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("insert order: %w", err)
	}

	for _, item := range items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_name, quantity, price)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), insertedID, item.ProductName, item.Quantity, item.Price)
		if err != nil {
			return "", false, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return "", false, err
	}
	return insertedID, true, nil
}

// ListOrdersByUser returns the user's order history, newest first, items
// included.
func (s *OrderStore) ListOrdersByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, stripe_session_id, amount_total, status,
			shipping_street, shipping_city, shipping_postal_code, shipping_country,
			is_gift, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.StripeSessionID, &o.AmountTotal, &o.Status,
			&o.ShippingStreet, &o.ShippingCity, &o.ShippingPostalCode, &o.ShippingCountry,
			&o.IsGift, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := s.listItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

// GetOrder returns one order the user owns, with items.
func (s *OrderStore) GetOrder(ctx context.Context, id, userID string) (*Order, error) {
	var o Order
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, stripe_session_id, amount_total, status,
			shipping_street, shipping_city, shipping_postal_code, shipping_country,
			is_gift, created_at
		FROM orders
		WHERE id = $1 AND user_id = $2`, id, userID).
		Scan(&o.ID, &o.UserID, &o.StripeSessionID, &o.AmountTotal, &o.Status,
			&o.ShippingStreet, &o.ShippingCity, &o.ShippingPostalCode, &o.ShippingCountry,
			&o.IsGift, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := s.listItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (s *OrderStore) listItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, product_name, quantity, price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
