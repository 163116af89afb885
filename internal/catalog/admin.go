package catalog

import (
	"context"
	"fmt"
	"time"

	"petshop-service/internal/models"
	"petshop-service/internal/store"
	"petshop-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChangePublisher puts catalog change events on the feed topic.
type ChangePublisher interface {
	PublishChange(ctx context.Context, event *models.ChangeEvent) error
}

// Admin applies back-office product mutations: persist first, then announce
// the change on the feed so every catalog replica converges.
type Admin struct {
	store     *store.Store
	publisher ChangePublisher
	logger    *zap.Logger
}

// NewAdmin creates the administrative catalog service.
func NewAdmin(s *store.Store, publisher ChangePublisher) *Admin {
	return &Admin{
		store:     s,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// CreateProduct inserts a product and announces it.
func (a *Admin) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.Status == "" {
		p.Status = models.ProductStatusActive
	}
	if err := a.store.CreateProduct(ctx, p); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	a.publish(ctx, models.ChangeOpInsert, p, nil)
	a.logger.Info("Product created", zap.Int64("product_id", p.ID), zap.String("name", p.Name))
	return nil
}

// UpdateProduct updates a product and announces the new row.
func (a *Admin) UpdateProduct(ctx context.Context, p *models.Product) error {
	old, err := a.store.GetProductByID(ctx, p.ID)
	if err != nil {
		return err
	}

	if err := a.store.UpdateProduct(ctx, p); err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	a.publish(ctx, models.ChangeOpUpdate, p, old)
	a.logger.Info("Product updated", zap.Int64("product_id", p.ID))
	return nil
}

// DeleteProduct removes a product and announces the deletion.
func (a *Admin) DeleteProduct(ctx context.Context, id int64) error {
	old, err := a.store.GetProductByID(ctx, id)
	if err != nil {
		return err
	}

	if err := a.store.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	a.publish(ctx, models.ChangeOpDelete, nil, old)
	a.logger.Info("Product deleted", zap.Int64("product_id", id))
	return nil
}

func (a *Admin) publish(ctx context.Context, op string, newRow, oldRow *models.Product) {
	if a.publisher == nil {
		return
	}

	event := &models.ChangeEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCatalogChange,
			Timestamp: time.Now(),
		},
		Table: models.TableProducts,
		Op:    op,
		New:   newRow,
		Old:   oldRow,
	}

	if err := a.publisher.PublishChange(ctx, event); err != nil {
		a.logger.Error("Failed to publish catalog change",
			zap.String("op", op),
			zap.Error(err))
	}
}
