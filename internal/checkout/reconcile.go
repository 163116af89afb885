package checkout

import (
	"context"
	"fmt"
	"time"

	"petshop-service/internal/models"
	"petshop-service/internal/util"

	"go.uber.org/zap"
)

// NavigationTarget is where the storefront should send the buyer after a
// payment return.
type NavigationTarget string

const (
	// TargetHome is the non-actionable outcome: unknown reference, foreign
	// order, or a status with nothing to show.
	TargetHome NavigationTarget = "home"

	// TargetProfile shows the buyer's order history, including this order.
	TargetProfile NavigationTarget = "profile"
)

// ReconcileGuard suppresses duplicate reconciliation effects for the same
// payment return.
type ReconcileGuard interface {
	MarkReconciled(ctx context.Context, externalRef string, ttl time.Duration) (bool, error)
}

// Statuses worth showing the buyer on return from the payment page. The
// provider's notification channel writes "paid"/"success" directly on legacy
// rows; orders placed by this service sit in pending or processing until the
// webhook lands.
var actionableStatuses = map[string]bool{
	models.OrderStatusPending:    true,
	models.OrderStatusProcessing: true,
	"paid":                       true,
	"success":                    true,
}

const reconcileGuardTTL = 10 * time.Minute

// Reconcile decides where to route a buyer returning from the payment page.
// It is a pure routing decision, never a status mutation: the provider's
// asynchronous notification owns status transitions. The guard keeps a
// double-fired return from counting twice; the returned target is the same
// either way.
func (s *Service) Reconcile(ctx context.Context, externalRef, userID string) (NavigationTarget, error) {
	ctx, span := util.StartSpan(ctx, "checkout.Reconcile")
	defer span.End()

	first := true
	if s.guard != nil {
		var err error
		first, err = s.guard.MarkReconciled(ctx, externalRef, reconcileGuardTTL)
		if err != nil {
			s.logger.Warn("Reconcile guard unavailable", zap.Error(err))
			first = true
		}
	}

	target, err := s.resolveTarget(ctx, externalRef, userID)
	if err != nil {
		return TargetHome, err
	}

	if first {
		util.ReconcileTotal.WithLabelValues(string(target)).Inc()
		s.logger.Info("Payment return reconciled",
			zap.String("external_reference", externalRef),
			zap.String("user_id", userID),
			zap.String("target", string(target)))
	}

	return target, nil
}

func (s *Service) resolveTarget(ctx context.Context, externalRef, userID string) (NavigationTarget, error) {
	order, err := s.store.GetOrderByExternalReference(ctx, externalRef)
	if err != nil {
		return TargetHome, fmt.Errorf("failed to look up order: %w", err)
	}
	if order == nil {
		return TargetHome, nil
	}

	// Ownership check: never leak another account's order status.
	if order.UserID != userID {
		return TargetHome, nil
	}

	if !actionableStatuses[order.Status] {
		return TargetHome, nil
	}

	return TargetProfile, nil
}
