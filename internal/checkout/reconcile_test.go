package checkout

import (
	"context"
	"testing"
	"time"

	"petshop-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGuard struct {
	seen map[string]bool
}

func (f *fakeGuard) MarkReconciled(_ context.Context, ref string, _ time.Duration) (bool, error) {
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	if f.seen[ref] {
		return false, nil
	}
	f.seen[ref] = true
	return true, nil
}

func reconcileService(byRef map[string]*models.Order) *Service {
	st := &fakeStore{byRef: byRef}
	return NewService(&fakeCatalog{}, st, &fakeProvider{}, nil, &fakeGuard{}, testPaymentConfig(), testPricingConfig())
}

func TestReconcileRoutesOwnerToProfile(t *testing.T) {
	svc := reconcileService(map[string]*models.Order{
		"101": {ID: 101, UserID: "user-1", Status: models.OrderStatusProcessing},
	})

	target, err := svc.Reconcile(context.Background(), "101", "user-1")
	require.NoError(t, err)
	assert.Equal(t, TargetProfile, target)
}

func TestReconcileUnknownReference(t *testing.T) {
	svc := reconcileService(nil)

	target, err := svc.Reconcile(context.Background(), "999", "user-1")
	require.NoError(t, err)
	assert.Equal(t, TargetHome, target)
}

func TestReconcileOwnershipGuard(t *testing.T) {
	// An order found by reference but owned by someone else must never
	// route to profile.
	svc := reconcileService(map[string]*models.Order{
		"101": {ID: 101, UserID: "user-2", Status: models.OrderStatusProcessing},
	})

	target, err := svc.Reconcile(context.Background(), "101", "user-1")
	require.NoError(t, err)
	assert.Equal(t, TargetHome, target)
}

func TestReconcileNonActionableStatus(t *testing.T) {
	svc := reconcileService(map[string]*models.Order{
		"101": {ID: 101, UserID: "user-1", Status: models.OrderStatusCancelled},
	})

	target, err := svc.Reconcile(context.Background(), "101", "user-1")
	require.NoError(t, err)
	assert.Equal(t, TargetHome, target)
}

func TestReconcileLegacyProviderStatuses(t *testing.T) {
	for _, status := range []string{"paid", "success", models.OrderStatusPending} {
		svc := reconcileService(map[string]*models.Order{
			"101": {ID: 101, UserID: "user-1", Status: status},
		})

		target, err := svc.Reconcile(context.Background(), "101", "user-1")
		require.NoError(t, err)
		assert.Equal(t, TargetProfile, target, "status %s", status)
	}
}

func TestReconcileRepeatedReturnSameTarget(t *testing.T) {
	// The guard suppresses duplicate effects but the routing decision is
	// repeatable.
	svc := reconcileService(map[string]*models.Order{
		"101": {ID: 101, UserID: "user-1", Status: models.OrderStatusProcessing},
	})

	first, err := svc.Reconcile(context.Background(), "101", "user-1")
	require.NoError(t, err)
	second, err := svc.Reconcile(context.Background(), "101", "user-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
