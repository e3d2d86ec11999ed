package webhook_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vitalsupply/storefront/svc/billing"
	"github.com/vitalsupply/storefront/svc/subscription"
	"github.com/vitalsupply/storefront/svc/webhook"
)

// stubVerifier returns a fixed parse result, standing in for signature
// verification which is covered by the gateway's own tests.
type stubVerifier struct {
	event *billing.Event
	err   error
}

func (v stubVerifier) VerifyAndParse(payload []byte, signature string) (*billing.Event, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.event, nil
}

type mockClient struct {
	mock.Mock
}

func (m *mockClient) CreateProduct(ctx context.Context, name, description string) (string, error) {
	args := m.Called(ctx, name, description)
	return args.String(0), args.Error(1)
}

func (m *mockClient) CreatePrice(ctx context.Context, productRef string, amountMinorUnits int64, rec billing.PriceRecurrence) (string, error) {
	args := m.Called(ctx, productRef, amountMinorUnits, rec)
	return args.String(0), args.Error(1)
}

func (m *mockClient) RetrievePrice(ctx context.Context, priceRef string) error {
	return m.Called(ctx, priceRef).Error(0)
}

func (m *mockClient) CreateCheckoutSession(ctx context.Context, req billing.CheckoutSessionRequest) (*billing.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CheckoutSession), args.Error(1)
}

func (m *mockClient) GetSubscription(ctx context.Context, externalRef string) (*billing.RemoteSubscription, error) {
	args := m.Called(ctx, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.RemoteSubscription), args.Error(1)
}

func (m *mockClient) SetCancelAtPeriodEnd(ctx context.Context, externalRef string, cancel bool) error {
	return m.Called(ctx, externalRef, cancel).Error(0)
}

func (m *mockClient) ListCheckoutLineItems(ctx context.Context, sessionRef string) ([]billing.SessionLineItem, error) {
	args := m.Called(ctx, sessionRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.SessionLineItem), args.Error(1)
}

type fixture struct {
	client *mockClient
	ledger *webhook.MemoryLedger
	subs   *subscription.MemoryStore
	orders *subscription.MemoryOrderStore
}

func newFixture() *fixture {
	return &fixture{
		client: &mockClient{},
		ledger: webhook.NewMemoryLedger(),
		subs:   subscription.NewMemoryStore(),
		orders: subscription.NewMemoryOrderStore(),
	}
}

func (f *fixture) processor(event *billing.Event) *webhook.Processor {
	return webhook.NewProcessor(stubVerifier{event: event}, f.client, f.ledger, f.subs, f.orders, nil)
}

func event(t *testing.T, id, kind string, data any) *billing.Event {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return &billing.Event{ID: id, Type: kind, Data: raw}
}

func remoteSub(ref string) *billing.RemoteSubscription {
	return &billing.RemoteSubscription{
		Ref:    ref,
		Status: "active",
		Metadata: map[string]string{
			"user_id": "user_1",
			"plan_id": "plan_monthly",
		},
		CurrentPeriodStart: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		CurrentPeriodEnd:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestProcessor_Handle_SignatureGate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture()
	p := webhook.NewProcessor(stubVerifier{err: billing.ErrInvalidSignature}, f.client, f.ledger, f.subs, f.orders, nil)

	err := p.Handle(ctx, []byte(`{"forged":true}`), "t=0,v1=bad")
	assert.ErrorIs(t, err, billing.ErrInvalidSignature)

	seen, ledgerErr := f.ledger.Seen(ctx, "evt_forged")
	require.NoError(t, ledgerErr)
	assert.False(t, seen, "unverified payloads never touch the ledger")
	f.client.AssertNotCalled(t, "GetSubscription", mock.Anything, mock.Anything)
}

func TestProcessor_Handle_CheckoutCompleted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("subscription mode mirrors remote state", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		f.client.On("GetSubscription", mock.Anything, "sub_1").Return(remoteSub("sub_1"), nil)

		evt := event(t, "evt_1", "checkout.session.completed", map[string]any{
			"id":           "cs_1",
			"mode":         "subscription",
			"subscription": "sub_1",
		})
		require.NoError(t, f.processor(evt).Handle(ctx, []byte(`{}`), "sig"))

		sub, err := f.subs.FindByExternalRef(ctx, "sub_1")
		require.NoError(t, err)
		assert.Equal(t, "user_1", sub.UserID)
		assert.Equal(t, "plan_monthly", sub.PlanID)
		assert.Equal(t, subscription.StatusActive, sub.Status)
		assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), sub.CurrentPeriodEnd)
	})

	t.Run("payment mode records an order", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		f.client.On("ListCheckoutLineItems", mock.Anything, "cs_2").Return([]billing.SessionLineItem{
			{ProductRef: "prod_omega3", Quantity: 2, AmountMinorUnits: 2499},
		}, nil)

		evt := event(t, "evt_2", "checkout.session.completed", map[string]any{
			"id":                  "cs_2",
			"mode":                "payment",
			"client_reference_id": "user_1",
			"payment_intent":      "pi_1",
			"amount_total":        4998,
			"currency":            "usd",
		})
		require.NoError(t, f.processor(evt).Handle(ctx, []byte(`{}`), "sig"))

		orders, err := f.orders.FindByUserID(ctx, "user_1")
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, "pi_1", orders[0].ExternalPaymentRef)
		assert.Equal(t, int64(4998), orders[0].TotalMinorUnits)
		require.Len(t, orders[0].Items, 1)
		assert.Equal(t, "prod_omega3", orders[0].Items[0].ProductRef)
	})

	t.Run("duplicate delivery runs the handler once", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		f.client.On("GetSubscription", mock.Anything, "sub_1").Return(remoteSub("sub_1"), nil).Once()

		evt := event(t, "evt_dup", "checkout.session.completed", map[string]any{
			"id": "cs_1", "mode": "subscription", "subscription": "sub_1",
		})
		p := f.processor(evt)

		require.NoError(t, p.Handle(ctx, []byte(`{}`), "sig"))
		require.NoError(t, p.Handle(ctx, []byte(`{}`), "sig"))

		f.client.AssertExpectations(t)
		subs, err := f.subs.FindByUserID(ctx, "user_1")
		require.NoError(t, err)
		assert.Len(t, subs, 1)
	})
}

func TestProcessor_Handle_InvoicePaid(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("refreshes period bounds on existing row", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		status := subscription.StatusActive
		userID := "user_1"
		_, err := f.subs.UpsertByExternalRef(ctx, "sub_1", subscription.Fields{UserID: &userID, Status: &status})
		require.NoError(t, err)

		renewed := remoteSub("sub_1")
		renewed.CurrentPeriodStart = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
		renewed.CurrentPeriodEnd = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
		f.client.On("GetSubscription", mock.Anything, "sub_1").Return(renewed, nil)

		evt := event(t, "evt_inv", "invoice.payment_succeeded", map[string]any{"subscription": "sub_1"})
		require.NoError(t, f.processor(evt).Handle(ctx, []byte(`{}`), "sig"))

		sub, err := f.subs.FindByExternalRef(ctx, "sub_1")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), sub.CurrentPeriodEnd)
	})

	t.Run("arriving before checkout creates the row", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		f.client.On("GetSubscription", mock.Anything, "sub_1").Return(remoteSub("sub_1"), nil)

		evt := event(t, "evt_inv_early", "invoice.payment_succeeded", map[string]any{"subscription": "sub_1"})
		require.NoError(t, f.processor(evt).Handle(ctx, []byte(`{}`), "sig"))

		sub, err := f.subs.FindByExternalRef(ctx, "sub_1")
		require.NoError(t, err)
		assert.Equal(t, "user_1", sub.UserID, "metadata correlation fills the user in")
	})

	t.Run("one-off invoice without subscription is acknowledged", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		evt := event(t, "evt_oneoff", "invoice.payment_succeeded", map[string]any{})
		require.NoError(t, f.processor(evt).Handle(ctx, []byte(`{}`), "sig"))
		f.client.AssertNotCalled(t, "GetSubscription", mock.Anything, mock.Anything)
	})
}

func TestProcessor_Handle_SubscriptionLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("updated event confirms cancellation intent", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		state := subscription.CancelRequestedLocally
		userID := "user_1"
		_, err := f.subs.UpsertByExternalRef(ctx, "sub_1", subscription.Fields{UserID: &userID, CancelState: &state})
		require.NoError(t, err)

		evt := event(t, "evt_upd", "customer.subscription.updated", map[string]any{
			"id":                   "sub_1",
			"status":               "active",
			"cancel_at_period_end": true,
			"current_period_start": time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC).Unix(),
			"current_period_end":   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC).Unix(),
		})
		require.NoError(t, f.processor(evt).Handle(ctx, []byte(`{}`), "sig"))

		sub, err := f.subs.FindByExternalRef(ctx, "sub_1")
		require.NoError(t, err)
		assert.Equal(t, subscription.CancelConfirmedExternally, sub.CancelState)
		assert.Equal(t, "user_1", sub.UserID, "update without metadata keeps the stored user")
		assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), sub.CurrentPeriodEnd)
	})

	t.Run("resumed subscription clears the cancel mark", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		state := subscription.CancelConfirmedExternally
		_, err := f.subs.UpsertByExternalRef(ctx, "sub_1", subscription.Fields{CancelState: &state})
		require.NoError(t, err)

		evt := event(t, "evt_resume", "customer.subscription.updated", map[string]any{
			"id": "sub_1", "status": "active", "cancel_at_period_end": false,
		})
		require.NoError(t, f.processor(evt).Handle(ctx, []byte(`{}`), "sig"))

		sub, err := f.subs.FindByExternalRef(ctx, "sub_1")
		require.NoError(t, err)
		assert.Equal(t, subscription.CancelNone, sub.CancelState)
	})

	t.Run("deleted event retains a canceled row", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		userID := "user_1"
		status := subscription.StatusActive
		_, err := f.subs.UpsertByExternalRef(ctx, "sub_1", subscription.Fields{UserID: &userID, Status: &status})
		require.NoError(t, err)

		evt := event(t, "evt_del", "customer.subscription.deleted", map[string]any{
			"id": "sub_1", "status": "canceled",
		})
		require.NoError(t, f.processor(evt).Handle(ctx, []byte(`{}`), "sig"))

		sub, err := f.subs.FindByExternalRef(ctx, "sub_1")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusCanceled, sub.Status)
		assert.Equal(t, "user_1", sub.UserID, "history row keeps its owner")
	})
}

func TestProcessor_Handle_Resilience(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("unknown event type is acknowledged", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		evt := event(t, "evt_new", "entitlements.active_entitlement_summary.updated", map[string]any{})
		require.NoError(t, f.processor(evt).Handle(ctx, []byte(`{}`), "sig"))
	})

	t.Run("malformed payload is terminal", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		evt := &billing.Event{ID: "evt_bad", Type: "checkout.session.completed", Data: []byte(`"not an object"`)}

		err := f.processor(evt).Handle(ctx, []byte(`{}`), "sig")
		assert.ErrorIs(t, err, webhook.ErrMalformedEvent)
		assert.NotErrorIs(t, err, webhook.ErrHandlerFailed, "malformed events must not be redelivered")
	})

	t.Run("failed handler leaves no ledger entry so redelivery retries", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		f.client.On("GetSubscription", mock.Anything, "sub_1").Return(nil, billing.ErrExternalService).Once()
		f.client.On("GetSubscription", mock.Anything, "sub_1").Return(remoteSub("sub_1"), nil).Once()

		evt := event(t, "evt_retry", "checkout.session.completed", map[string]any{
			"id": "cs_1", "mode": "subscription", "subscription": "sub_1",
		})
		p := f.processor(evt)

		err := p.Handle(ctx, []byte(`{}`), "sig")
		assert.ErrorIs(t, err, webhook.ErrHandlerFailed)

		seen, ledgerErr := f.ledger.Seen(ctx, "evt_retry")
		require.NoError(t, ledgerErr)
		assert.False(t, seen)

		require.NoError(t, p.Handle(ctx, []byte(`{}`), "sig"))
		_, err = f.subs.FindByExternalRef(ctx, "sub_1")
		require.NoError(t, err)
	})

	t.Run("out-of-order events converge", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		f.client.On("GetSubscription", mock.Anything, "sub_1").Return(remoteSub("sub_1"), nil)

		// Lifecycle update lands before the checkout event that "creates" the
		// subscription.
		updated := event(t, "evt_a", "customer.subscription.updated", map[string]any{
			"id": "sub_1", "status": "active", "cancel_at_period_end": false,
		})
		require.NoError(t, f.processor(updated).Handle(ctx, []byte(`{}`), "sig"))

		completed := event(t, "evt_b", "checkout.session.completed", map[string]any{
			"id": "cs_1", "mode": "subscription", "subscription": "sub_1",
		})
		require.NoError(t, f.processor(completed).Handle(ctx, []byte(`{}`), "sig"))

		subs, err := f.subs.FindByUserID(ctx, "user_1")
		require.NoError(t, err)
		require.Len(t, subs, 1, "both orderings yield a single converged row")
		assert.Equal(t, "plan_monthly", subs[0].PlanID)
	})
}
