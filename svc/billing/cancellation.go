package billing

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vitalsupply/storefront/svc/subscription"
)

// CancellationCoordinator requests cancellation-at-period-end on the
// processor and records local intent. The processor's confirmation arrives
// later through the webhook feed, which may overwrite the optimistic mark;
// that overwrite is the design, not a bug.
type CancellationCoordinator struct {
	subs      subscription.Store
	processor Processor
	log       *slog.Logger
}

// NewCancellationCoordinator wires the coordinator.
func NewCancellationCoordinator(subs subscription.Store, processor Processor, log *slog.Logger) *CancellationCoordinator {
	if subs == nil {
		panic("billing: subscription store is required")
	}
	if processor == nil {
		panic("billing: payment processor is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &CancellationCoordinator{subs: subs, processor: processor, log: log}
}

// RequestCancellation flags the subscription to end at period close.
// Ownership is verified first; a subscription belonging to someone else
// reports ErrSubscriptionNotFound rather than revealing its existence.
func (c *CancellationCoordinator) RequestCancellation(ctx context.Context, userID, externalRef string) error {
	sub, err := c.subs.FindByExternalRef(ctx, externalRef)
	if err != nil {
		return err
	}
	if sub.UserID != userID {
		return subscription.ErrSubscriptionNotFound
	}

	if err := c.processor.SetCancelAtPeriodEnd(ctx, externalRef, true); err != nil {
		return errors.Join(ErrCancellationFailed, err)
	}

	// Optimistic local mark; the authoritative state lands via webhook.
	state := subscription.CancelRequestedLocally
	if _, err := c.subs.UpsertByExternalRef(ctx, externalRef, subscription.Fields{CancelState: &state}); err != nil {
		// The processor accepted the cancellation; the local mark is cosmetic
		// and the webhook will converge it. Log, do not fail the request.
		c.log.ErrorContext(ctx, "failed to record local cancellation intent",
			"external_ref", externalRef, "error", err)
	}

	c.log.InfoContext(ctx, "cancellation requested", "user_id", userID, "external_ref", externalRef)
	return nil
}
