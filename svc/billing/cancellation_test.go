package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vitalsupply/storefront/svc/billing"
	"github.com/vitalsupply/storefront/svc/subscription"
)

func seedSubscription(t *testing.T, store subscription.Store, externalRef, userID string) {
	t.Helper()
	status := subscription.StatusActive
	_, err := store.UpsertByExternalRef(context.Background(), externalRef, subscription.Fields{
		UserID: &userID,
		Status: &status,
	})
	require.NoError(t, err)
}

func TestCancellationCoordinator_RequestCancellation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("flags processor and records local intent", func(t *testing.T) {
		t.Parallel()
		subs := subscription.NewMemoryStore()
		seedSubscription(t, subs, "sub_1", "user_1")

		processor := &mockProcessor{}
		processor.On("SetCancelAtPeriodEnd", mock.Anything, "sub_1", true).Return(nil)

		c := billing.NewCancellationCoordinator(subs, processor, nil)
		require.NoError(t, c.RequestCancellation(ctx, "user_1", "sub_1"))

		got, err := subs.FindByExternalRef(ctx, "sub_1")
		require.NoError(t, err)
		assert.Equal(t, subscription.CancelRequestedLocally, got.CancelState)
		assert.Equal(t, subscription.StatusActive, got.Status, "status changes only via webhook")
		processor.AssertExpectations(t)
	})

	t.Run("unknown subscription", func(t *testing.T) {
		t.Parallel()
		c := billing.NewCancellationCoordinator(subscription.NewMemoryStore(), &mockProcessor{}, nil)
		err := c.RequestCancellation(ctx, "user_1", "sub_nope")
		assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
	})

	t.Run("other user's subscription looks nonexistent", func(t *testing.T) {
		t.Parallel()
		subs := subscription.NewMemoryStore()
		seedSubscription(t, subs, "sub_1", "user_1")

		processor := &mockProcessor{}
		c := billing.NewCancellationCoordinator(subs, processor, nil)

		err := c.RequestCancellation(ctx, "user_2", "sub_1")
		assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
		processor.AssertNotCalled(t, "SetCancelAtPeriodEnd", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("processor failure leaves state untouched", func(t *testing.T) {
		t.Parallel()
		subs := subscription.NewMemoryStore()
		seedSubscription(t, subs, "sub_1", "user_1")

		processor := &mockProcessor{}
		processor.On("SetCancelAtPeriodEnd", mock.Anything, "sub_1", true).Return(billing.ErrExternalService)

		c := billing.NewCancellationCoordinator(subs, processor, nil)
		err := c.RequestCancellation(ctx, "user_1", "sub_1")
		assert.ErrorIs(t, err, billing.ErrCancellationFailed)

		got, findErr := subs.FindByExternalRef(ctx, "sub_1")
		require.NoError(t, findErr)
		assert.Equal(t, subscription.CancelNone, got.CancelState)
	})
}
