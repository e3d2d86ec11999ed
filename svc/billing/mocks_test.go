package billing_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vitalsupply/storefront/svc/billing"
)

type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) CreateProduct(ctx context.Context, name, description string) (string, error) {
	args := m.Called(ctx, name, description)
	return args.String(0), args.Error(1)
}

func (m *mockProcessor) CreatePrice(ctx context.Context, productRef string, amountMinorUnits int64, rec billing.PriceRecurrence) (string, error) {
	args := m.Called(ctx, productRef, amountMinorUnits, rec)
	return args.String(0), args.Error(1)
}

func (m *mockProcessor) RetrievePrice(ctx context.Context, priceRef string) error {
	args := m.Called(ctx, priceRef)
	return args.Error(0)
}

func (m *mockProcessor) CreateCheckoutSession(ctx context.Context, req billing.CheckoutSessionRequest) (*billing.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CheckoutSession), args.Error(1)
}

func (m *mockProcessor) GetSubscription(ctx context.Context, externalRef string) (*billing.RemoteSubscription, error) {
	args := m.Called(ctx, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.RemoteSubscription), args.Error(1)
}

func (m *mockProcessor) SetCancelAtPeriodEnd(ctx context.Context, externalRef string, cancel bool) error {
	args := m.Called(ctx, externalRef, cancel)
	return args.Error(0)
}

func (m *mockProcessor) ListCheckoutLineItems(ctx context.Context, sessionRef string) ([]billing.SessionLineItem, error) {
	args := m.Called(ctx, sessionRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.SessionLineItem), args.Error(1)
}
