package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"petshop-service/internal/models"
	"petshop-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrStockExceeded is returned when a mutation would push a line's
	// quantity past the product's recorded stock.
	ErrStockExceeded = errors.New("requested quantity exceeds available stock")

	// ErrInvalidQuantity is returned when Add is called with quantity < 1.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Line is one cart entry: a product snapshot plus the requested quantity.
// The quantity keeps its legacy "cantidad" JSON key so carts written by the
// previous client still load.
type Line struct {
	models.Product
	Quantity int `json:"cantidad"`
}

// Subtotal returns unit price times quantity for this line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Ledger is the durable record of products selected for purchase. Lines are
// ordered by insertion and keyed by product ID, at most one line per product.
// Every mutation writes the full ledger through Storage before returning, so
// a crash between mutation and the next read never loses the cart.
type Ledger struct {
	mu        sync.Mutex
	sessionID string
	lines     []Line
	storage   Storage
	logger    *zap.Logger
}

// NewLedger loads the persisted cart for the session, starting empty when
// nothing is stored yet.
func NewLedger(ctx context.Context, sessionID string, storage Storage) (*Ledger, error) {
	lines, err := storage.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	return &Ledger{
		sessionID: sessionID,
		lines:     lines,
		storage:   storage,
		logger:    util.GetLogger(),
	}, nil
}

// Add merges quantity into an existing line for the product or appends a new
// one. Fails with ErrStockExceeded when the resulting quantity would exceed
// the product's stock; the ledger is left untouched on any failure.
func (c *Ledger) Add(ctx context.Context, product models.Product, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ID == product.ID {
			next := c.lines[i].Quantity + quantity
			if next > product.Stock {
				return fmt.Errorf("product %d: %w", product.ID, ErrStockExceeded)
			}
			updated := Line{Product: product, Quantity: next}
			return c.replaceLine(ctx, i, updated, "add")
		}
	}

	if quantity > product.Stock {
		return fmt.Errorf("product %d: %w", product.ID, ErrStockExceeded)
	}

	next := append(append([]Line{}, c.lines...), Line{Product: product, Quantity: quantity})
	return c.commit(ctx, next, "add")
}

// UpdateQuantity replaces a line's quantity. Quantity <= 0 removes the line;
// exceeding the line's recorded stock ceiling fails with ErrStockExceeded and
// leaves the stored quantity unchanged.
func (c *Ledger) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return c.Remove(ctx, productID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ID == productID {
			if quantity > c.lines[i].Stock {
				return fmt.Errorf("product %d: %w", productID, ErrStockExceeded)
			}
			updated := c.lines[i]
			updated.Quantity = quantity
			return c.replaceLine(ctx, i, updated, "update")
		}
	}

	return fmt.Errorf("product not in cart: %d", productID)
}

// Remove drops the line for the product, if present.
func (c *Ledger) Remove(ctx context.Context, productID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make([]Line, 0, len(c.lines))
	for _, line := range c.lines {
		if line.ID != productID {
			next = append(next, line)
		}
	}
	if len(next) == len(c.lines) {
		return nil
	}

	return c.commit(ctx, next, "remove")
}

// Clear empties the ledger and persists the empty state. Called after an
// order's payment preference has been created.
func (c *Ledger) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.commit(ctx, []Line{}, "clear")
}

// Lines returns a copy of the current lines in insertion order.
func (c *Ledger) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// SessionID returns the session this ledger belongs to.
func (c *Ledger) SessionID() string {
	return c.sessionID
}

func (c *Ledger) replaceLine(ctx context.Context, idx int, line Line, op string) error {
	next := make([]Line, len(c.lines))
	copy(next, c.lines)
	next[idx] = line
	return c.commit(ctx, next, op)
}

// commit persists the candidate state and only then makes it visible.
// Caller must hold c.mu.
func (c *Ledger) commit(ctx context.Context, next []Line, op string) error {
	if err := c.storage.Save(ctx, c.sessionID, next); err != nil {
		c.logger.Error("Failed to persist cart",
			zap.String("session_id", c.sessionID),
			zap.String("op", op),
			zap.Error(err))
		return fmt.Errorf("failed to persist cart: %w", err)
	}

	c.lines = next
	util.CartMutationsTotal.WithLabelValues(op).Inc()
	return nil
}
