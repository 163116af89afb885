package checkout

import (
	"context"
	"testing"

	"petshop-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notificationService(st *fakeStore) *Service {
	return NewService(&fakeCatalog{}, st, &fakeProvider{}, nil, nil, testPaymentConfig(), testPricingConfig())
}

func TestNotificationApprovedCompletesOrder(t *testing.T) {
	st := &fakeStore{byRef: map[string]*models.Order{
		"101": {ID: 101, UserID: "user-1", Status: models.OrderStatusProcessing},
	}}
	svc := notificationService(st)

	err := svc.HandlePaymentNotification(context.Background(), "101", NotificationApproved)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, st.statusSets[101])
}

func TestNotificationRejectedCancelsOrder(t *testing.T) {
	st := &fakeStore{byRef: map[string]*models.Order{
		"101": {ID: 101, UserID: "user-1", Status: models.OrderStatusProcessing},
	}}
	svc := notificationService(st)

	err := svc.HandlePaymentNotification(context.Background(), "101", NotificationRejected)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, st.statusSets[101])
}

func TestNotificationPendingIsNoop(t *testing.T) {
	st := &fakeStore{byRef: map[string]*models.Order{
		"101": {ID: 101, UserID: "user-1", Status: models.OrderStatusProcessing},
	}}
	svc := notificationService(st)

	require.NoError(t, svc.HandlePaymentNotification(context.Background(), "101", NotificationPending))
	require.NoError(t, svc.HandlePaymentNotification(context.Background(), "101", NotificationInProcess))
	assert.Empty(t, st.statusSets)
}

func TestNotificationIgnoredOnceTerminal(t *testing.T) {
	st := &fakeStore{byRef: map[string]*models.Order{
		"101": {ID: 101, UserID: "user-1", Status: models.OrderStatusCompleted},
	}}
	svc := notificationService(st)

	err := svc.HandlePaymentNotification(context.Background(), "101", NotificationRejected)
	require.NoError(t, err)
	assert.Empty(t, st.statusSets)
}

func TestNotificationUnknownOrder(t *testing.T) {
	svc := notificationService(&fakeStore{})

	err := svc.HandlePaymentNotification(context.Background(), "404", NotificationApproved)
	require.NoError(t, err)
}
