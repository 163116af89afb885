package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"petshop-service/internal/models"
)

// ErrInsufficientStock is returned by CreateOrderWithLines when the
// conditional stock decrement for one of the lines affects no rows.
var ErrInsufficientStock = errors.New("insufficient stock")

// CreateOrderWithLines atomically inserts an order, its lines, and decrements
// stock for every line. The decrement is conditional (stock >= quantity), so
// two concurrent checkouts racing for the last unit cannot both commit.
// Everything rolls back on any failure; no dangling empty order is left.
func (s *Store) CreateOrderWithLines(ctx context.Context, order *models.Order, lines []models.OrderLine) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (user_id, subtotal, shipping, tax, total, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	if err := tx.GetContext(ctx, order, orderQuery,
		order.UserID, order.Subtotal, order.Shipping, order.Tax, order.Total, order.Status); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range lines {
		lines[i].OrderID = order.ID

		res, err := tx.ExecContext(ctx,
			"UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1",
			lines[i].Quantity, lines[i].ProductID)
		if err != nil {
			return fmt.Errorf("failed to decrement stock for product %d: %w", lines[i].ProductID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("product %d: %w", lines[i].ProductID, ErrInsufficientStock)
		}

		lineQuery := `
			INSERT INTO order_lines (order_id, product_id, name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`

		if err := tx.GetContext(ctx, &lines[i].ID, lineQuery,
			lines[i].OrderID, lines[i].ProductID, lines[i].Name, lines[i].Quantity, lines[i].UnitPrice); err != nil {
			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}

	return tx.Commit()
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByExternalReference retrieves the order a payment session refers
// back to. The external reference is the order ID rendered as a string.
// Returns nil without error when no order matches.
func (s *Store) GetOrderByExternalReference(ctx context.Context, ref string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id::text = $1", ref)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrdersByUserID retrieves orders for a user, newest first
func (s *Store) GetOrdersByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// GetOrderLinesByOrderID retrieves all lines for an order
func (s *Store) GetOrderLinesByOrderID(ctx context.Context, orderID int64) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := s.db.SelectContext(ctx, &lines,
		"SELECT * FROM order_lines WHERE order_id = $1 ORDER BY id", orderID)
	return lines, err
}

// UpdateOrderStatus updates order status
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	return err
}

// AttachPaymentPreference annotates an order with the payment preference it
// was submitted under and moves it to processing.
func (s *Store) AttachPaymentPreference(ctx context.Context, orderID int64, pref PaymentPreferenceFields) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET preference_id = $1, collector_id = $2, client_id = $3, operation_type = $4,
		    init_point = $5, sandbox_init_point = $6, status = $7, updated_at = NOW()
		WHERE id = $8`,
		pref.PreferenceID, pref.CollectorID, pref.ClientID, pref.OperationType,
		pref.InitPoint, pref.SandboxInitPoint, models.OrderStatusProcessing, orderID)
	return err
}

// PaymentPreferenceFields carries the provider identifiers written back onto
// an order after preference creation.
type PaymentPreferenceFields struct {
	PreferenceID     string
	CollectorID      string
	ClientID         string
	OperationType    string
	InitPoint        string
	SandboxInitPoint string
}
