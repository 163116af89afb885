package worker

import (
	"context"

	"petshop-service/internal/broker"
	"petshop-service/internal/util"

	"go.uber.org/zap"
)

// CatalogWorker consumes the catalog change topic and fans events out through
// the change feed, keeping every catalog replica current.
type CatalogWorker struct {
	consumer *broker.Consumer
	feed     *broker.ChangeFeed
	logger   *zap.Logger
}

// NewCatalogWorker creates a worker over the consumer and feed.
func NewCatalogWorker(consumer *broker.Consumer, feed *broker.ChangeFeed) *CatalogWorker {
	return &CatalogWorker{
		consumer: consumer,
		feed:     feed,
		logger:   util.GetLogger(),
	}
}

// Start consumes until the context is cancelled.
func (w *CatalogWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting catalog feed worker")
	return w.consumer.StartConsuming(ctx, w.feed.HandleMessage)
}

// Stop closes the underlying consumer.
func (w *CatalogWorker) Stop() error {
	w.logger.Info("Stopping catalog feed worker")
	return w.consumer.Close()
}
