package subscription

import (
	"context"
	"time"
)

// Fields carries the subscription attributes an upsert applies. Nil pointers
// leave the stored value untouched, so out-of-order events only overwrite
// what they actually know.
type Fields struct {
	UserID             *string
	PlanID             *string
	Status             *Status
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelState        *CancelState
}

// Store is the only write path for subscription rows. UpsertByExternalRef is
// safe to call concurrently and repeatedly with the same ref; scalar fields
// are last-write-wins. Webhook handlers own all fields; the cancellation
// coordinator may only touch CancelState.
type Store interface {
	UpsertByExternalRef(ctx context.Context, externalRef string, fields Fields) (*Subscription, error)

	// FindByExternalRef returns ErrSubscriptionNotFound if missing.
	FindByExternalRef(ctx context.Context, externalRef string) (*Subscription, error)

	// FindActiveByUserID returns the user's active or trialing subscriptions.
	FindActiveByUserID(ctx context.Context, userID string) ([]Subscription, error)

	// FindByUserID returns all of the user's subscriptions, newest first.
	FindByUserID(ctx context.Context, userID string) ([]Subscription, error)
}

// OrderStore persists one-time purchase records.
type OrderStore interface {
	// CreateFromCheckout writes the order and its items in one all-or-nothing
	// operation. A duplicate ExternalPaymentRef is a replayed delivery and is
	// a successful no-op.
	CreateFromCheckout(ctx context.Context, order Order) error

	// FindByUserID returns the user's orders, newest first.
	FindByUserID(ctx context.Context, userID string) ([]Order, error)
}
