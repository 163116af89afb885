package checkout

import (
	"context"
	"fmt"
	"time"

	"petshop-service/internal/models"
	"petshop-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Provider notification statuses.
const (
	NotificationApproved  = "approved"
	NotificationPending   = "pending"
	NotificationInProcess = "in_process"
	NotificationRejected  = "rejected"
	NotificationCancelled = "cancelled"
)

// StatusStore extends OrderStore with the status write the notification
// channel needs.
type StatusStore interface {
	OrderStore
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error
}

// StatusPublisher publishes terminal status transitions.
type StatusPublisher interface {
	PublishOrderStatus(ctx context.Context, event *models.OrderStatusEvent) error
}

// HandlePaymentNotification applies an asynchronous payment-provider
// notification to the order the external reference points at. Approved moves
// the order to completed, rejected/cancelled to cancelled; pending states are
// no-ops. Replayed notifications are ignored once the order is terminal.
func (s *Service) HandlePaymentNotification(ctx context.Context, externalRef, providerStatus string) error {
	ctx, span := util.StartSpan(ctx, "checkout.HandlePaymentNotification")
	defer span.End()

	statusStore, ok := s.store.(StatusStore)
	if !ok {
		return fmt.Errorf("order store does not support status updates")
	}

	order, err := statusStore.GetOrderByExternalReference(ctx, externalRef)
	if err != nil {
		return fmt.Errorf("failed to look up order: %w", err)
	}
	if order == nil {
		s.logger.Warn("Payment notification for unknown order",
			zap.String("external_reference", externalRef))
		return nil
	}

	var next string
	switch providerStatus {
	case NotificationApproved:
		next = models.OrderStatusCompleted
	case NotificationRejected, NotificationCancelled:
		next = models.OrderStatusCancelled
	case NotificationPending, NotificationInProcess:
		return nil
	default:
		s.logger.Warn("Unknown provider status",
			zap.String("status", providerStatus),
			zap.String("external_reference", externalRef))
		return nil
	}

	if order.Status == models.OrderStatusCompleted || order.Status == models.OrderStatusCancelled {
		s.logger.Info("Order already terminal, notification ignored",
			zap.Int64("order_id", order.ID),
			zap.String("status", order.Status))
		return nil
	}

	if err := statusStore.UpdateOrderStatus(ctx, order.ID, next); err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	switch next {
	case models.OrderStatusCompleted:
		util.OrdersCompletedTotal.Inc()
	case models.OrderStatusCancelled:
		util.OrdersCancelledTotal.Inc()
	}

	s.logger.Info("Payment notification applied",
		zap.Int64("order_id", order.ID),
		zap.String("status", next))

	if pub, ok := s.publisher.(StatusPublisher); ok && pub != nil {
		eventType := models.EventTypeOrderCompleted
		if next == models.OrderStatusCancelled {
			eventType = models.EventTypeOrderCancelled
		}
		event := &models.OrderStatusEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: eventType,
				Timestamp: time.Now(),
			},
			OrderID: order.ID,
			UserID:  order.UserID,
			Status:  next,
			Reason:  providerStatus,
		}
		if err := pub.PublishOrderStatus(ctx, event); err != nil {
			s.logger.Error("Failed to publish order status event", zap.Error(err))
		}
	}

	return nil
}
