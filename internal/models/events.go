package models

import "time"

// Event types
const (
	EventTypeCatalogChange  = "CATALOG_CHANGE"
	EventTypeOrderPlaced    = "ORDER_PLACED"
	EventTypeOrderCompleted = "ORDER_COMPLETED"
	EventTypeOrderCancelled = "ORDER_CANCELLED"
)

// Change-feed operations, mirroring the backing store's row events.
const (
	ChangeOpInsert = "INSERT"
	ChangeOpUpdate = "UPDATE"
	ChangeOpDelete = "DELETE"
)

// Tables carried on the catalog change feed.
const (
	TableProducts   = "products"
	TableCategories = "categories"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ChangeEvent is one row-level change on a watched table. New carries the row
// after INSERT/UPDATE; Old carries the row before UPDATE/DELETE. Category
// changes reuse the same envelope with the category encoded in New/Old.
type ChangeEvent struct {
	BaseEvent
	Table    string    `json:"table"`
	Op       string    `json:"op"`
	New      *Product  `json:"new,omitempty"`
	Old      *Product  `json:"old,omitempty"`
	Category *Category `json:"category,omitempty"`
}

// OrderPlacedEvent is published once an order has its payment preference and
// has moved to processing.
type OrderPlacedEvent struct {
	BaseEvent
	OrderID      int64  `json:"order_id"`
	UserID       string `json:"user_id"`
	Total        string `json:"total"`
	PreferenceID string `json:"preference_id"`
}

// OrderStatusEvent is published when a payment notification or administrative
// action moves an order to a terminal status.
type OrderStatusEvent struct {
	BaseEvent
	OrderID int64  `json:"order_id"`
	UserID  string `json:"user_id"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
}
