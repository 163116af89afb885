// Package catalog keeps a local copy of product and category records, loaded
// from the backing store and kept fresh by a push-based change feed.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"petshop-service/internal/models"
	"petshop-service/internal/util"

	"go.uber.org/zap"
)

// Feed delivers row-level change events for a table. Subscribe returns a
// handle that removes the subscription.
type Feed interface {
	Subscribe(table string, fn func(models.ChangeEvent)) (unsubscribe func())
}

// Source is the authoritative record store the catalog loads from.
type Source interface {
	GetProducts(ctx context.Context) ([]models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	GetCategories(ctx context.Context) ([]models.Category, error)
}

// Store is the in-memory catalog. Change events are applied under a single
// write lock; readers always see a complete row, never a partial update.
type Store struct {
	mu         sync.RWMutex
	products   map[int64]models.Product
	categories map[int64]models.Category

	source Source
	logger *zap.Logger

	unsubscribes []func()
}

// NewStore creates an empty catalog over the given source.
func NewStore(source Source) *Store {
	return &Store{
		products:   make(map[int64]models.Product),
		categories: make(map[int64]models.Category),
		source:     source,
		logger:     util.GetLogger(),
	}
}

// Load fills the catalog from the source. Called once at startup before the
// feed subscription begins applying deltas.
func (s *Store) Load(ctx context.Context) error {
	products, err := s.source.GetProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	categories, err := s.source.GetCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range products {
		s.products[p.ID] = p
	}
	for _, c := range categories {
		s.categories[c.ID] = c
	}

	s.logger.Info("Catalog loaded",
		zap.Int("products", len(products)),
		zap.Int("categories", len(categories)))
	return nil
}

// Watch subscribes the catalog to the change feed.
func (s *Store) Watch(feed Feed) {
	s.unsubscribes = append(s.unsubscribes,
		feed.Subscribe(models.TableProducts, s.Apply),
		feed.Subscribe(models.TableCategories, s.Apply),
	)
}

// Unwatch removes all feed subscriptions.
func (s *Store) Unwatch() {
	for _, unsub := range s.unsubscribes {
		unsub()
	}
	s.unsubscribes = nil
}

// Apply folds one change event into the catalog.
func (s *Store) Apply(ev models.ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Table {
	case models.TableProducts:
		switch ev.Op {
		case models.ChangeOpInsert, models.ChangeOpUpdate:
			if ev.New != nil {
				s.products[ev.New.ID] = *ev.New
			}
		case models.ChangeOpDelete:
			if ev.Old != nil {
				delete(s.products, ev.Old.ID)
			}
		}
	case models.TableCategories:
		switch ev.Op {
		case models.ChangeOpInsert, models.ChangeOpUpdate:
			if ev.Category != nil {
				s.categories[ev.Category.ID] = *ev.Category
			}
		case models.ChangeOpDelete:
			if ev.Category != nil {
				delete(s.categories, ev.Category.ID)
			}
		}
	default:
		s.logger.Warn("Change event for unwatched table", zap.String("table", ev.Table))
		return
	}

	util.CatalogEventsApplied.WithLabelValues(ev.Table, ev.Op).Inc()
}

// Product returns the cached product, if present.
func (s *Store) Product(id int64) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	return p, ok
}

// Products returns all cached products ordered by ID.
func (s *Store) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Categories returns all cached categories ordered by name.
func (s *Store) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RefreshProducts re-fetches the named products from the source and updates
// the cache. Checkout uses this to validate the cart against live stock
// instead of trusting possibly stale feed state. Products the source no
// longer has are dropped from the cache and absent from the result.
func (s *Store) RefreshProducts(ctx context.Context, ids []int64) (map[int64]models.Product, error) {
	products, err := s.source.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh products: %w", err)
	}

	fresh := make(map[int64]models.Product, len(products))
	for _, p := range products {
		fresh[p.ID] = p
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if p, ok := fresh[id]; ok {
			s.products[id] = p
		} else {
			delete(s.products, id)
		}
	}

	return fresh, nil
}
