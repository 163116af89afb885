package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"petshop-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher publishes domain events onto their topics.
type EventPublisher struct {
	catalog *Producer
	orders  *Producer
}

// NewEventPublisher creates a publisher over the catalog and order producers.
func NewEventPublisher(catalog, orders *Producer) *EventPublisher {
	return &EventPublisher{catalog: catalog, orders: orders}
}

// PublishChange publishes a catalog change event. Keyed by table so row
// ordering within a table is preserved.
func (ep *EventPublisher) PublishChange(ctx context.Context, event *models.ChangeEvent) error {
	return ep.catalog.PublishEvent(ctx, event.Table, event)
}

// PublishOrderPlaced publishes an OrderPlaced event
func (ep *EventPublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.orders.PublishEvent(ctx, key, event)
}

// PublishOrderStatus publishes a terminal status transition
func (ep *EventPublisher) PublishOrderStatus(ctx context.Context, event *models.OrderStatusEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.orders.PublishEvent(ctx, key, event)
}

// ChangeFeed fans change events out to per-table subscribers. It implements
// the catalog's Feed interface; the worker feeds it from the Kafka topic.
type ChangeFeed struct {
	mu   sync.RWMutex
	subs map[string]map[int64]func(models.ChangeEvent)
	next int64
}

// NewChangeFeed creates an empty feed.
func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{subs: make(map[string]map[int64]func(models.ChangeEvent))}
}

// Subscribe registers a callback for one table's changes and returns the
// unsubscribe handle.
func (f *ChangeFeed) Subscribe(table string, fn func(models.ChangeEvent)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subs[table] == nil {
		f.subs[table] = make(map[int64]func(models.ChangeEvent))
	}
	id := f.next
	f.next++
	f.subs[table][id] = fn

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs[table], id)
	}
}

// Dispatch delivers an event to every subscriber of its table.
func (f *ChangeFeed) Dispatch(ev models.ChangeEvent) {
	f.mu.RLock()
	fns := make([]func(models.ChangeEvent), 0, len(f.subs[ev.Table]))
	for _, fn := range f.subs[ev.Table] {
		fns = append(fns, fn)
	}
	f.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// HandleMessage decodes a Kafka message from the catalog topic and dispatches
// it. Non-change events on the topic are ignored.
func (f *ChangeFeed) HandleMessage(_ context.Context, msg kafka.Message) error {
	var base models.BaseEvent
	if err := json.Unmarshal(msg.Value, &base); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}
	if base.EventType != models.EventTypeCatalogChange {
		return nil
	}

	var ev models.ChangeEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return fmt.Errorf("failed to unmarshal change event: %w", err)
	}

	f.Dispatch(ev)
	return nil
}
