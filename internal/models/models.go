package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product statuses
const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
)

// Product represents a catalog product.
//
// Categories is a comma-joined list of category slugs and Images a
// JSON-encoded array of URLs; both are stored as-is and decoded through the
// helpers below. Legacy rows may hold a bare URL string in Images.
type Product struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int             `db:"stock" json:"stock"`
	Status      string          `db:"status" json:"status"`
	Categories  string          `db:"categories" json:"categories"`
	Images      string          `db:"images" json:"images"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Active reports whether the product can be sold.
func (p *Product) Active() bool {
	return p.Status == ProductStatusActive
}

// CategorySlugs splits the comma-joined category list.
func (p *Product) CategorySlugs() []string {
	if p.Categories == "" {
		return nil
	}
	parts := strings.Split(p.Categories, ",")
	slugs := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			slugs = append(slugs, s)
		}
	}
	return slugs
}

// ImageURLs decodes the Images column, tolerating the legacy bare-string form.
func (p *Product) ImageURLs() []string {
	if p.Images == "" {
		return nil
	}
	var urls []string
	if err := json.Unmarshal([]byte(p.Images), &urls); err != nil {
		return []string{p.Images}
	}
	return urls
}

// Category represents a product category.
type Category struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Slug string `db:"slug" json:"slug"`
}

// Profile holds the buyer data required before checkout.
type Profile struct {
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	Address   string    `db:"address" json:"address,omitempty"`
	Role      string    `db:"role" json:"role,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Complete reports whether the profile carries the fields checkout requires.
func (p *Profile) Complete() bool {
	return strings.TrimSpace(p.Name) != "" && strings.TrimSpace(p.Email) != ""
}

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// Order represents a persisted purchase with its monetary breakdown and the
// payment-preference correlation fields filled in once a preference exists.
type Order struct {
	ID               int64           `db:"id" json:"id"`
	UserID           string          `db:"user_id" json:"user_id"`
	Subtotal         decimal.Decimal `db:"subtotal" json:"subtotal"`
	Shipping         decimal.Decimal `db:"shipping" json:"shipping"`
	Tax              decimal.Decimal `db:"tax" json:"tax"`
	Total            decimal.Decimal `db:"total" json:"total"`
	Status           string          `db:"status" json:"status"`
	PreferenceID     string          `db:"preference_id" json:"preference_id,omitempty"`
	CollectorID      string          `db:"collector_id" json:"collector_id,omitempty"`
	ClientID         string          `db:"client_id" json:"client_id,omitempty"`
	OperationType    string          `db:"operation_type" json:"operation_type,omitempty"`
	InitPoint        string          `db:"init_point" json:"init_point,omitempty"`
	SandboxInitPoint string          `db:"sandbox_init_point" json:"sandbox_init_point,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderLine is an immutable snapshot of one product within an order. The unit
// price is captured at purchase time so later price changes never rewrite
// history.
type OrderLine struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   int64           `db:"order_id" json:"order_id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Name      string          `db:"name" json:"name"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
}
