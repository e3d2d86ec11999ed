package webhook

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vitalsupply/storefront/svc/billing"
	"github.com/vitalsupply/storefront/svc/subscription"
)

// Processor verifies, deduplicates, and dispatches inbound payment-processor
// notifications. It is the only writer of subscription state (besides the
// cancellation coordinator's intent mark) and the only component allowed to
// create orders.
//
// Deliveries are at-least-once and possibly reordered, so every handler is
// an upsert keyed by the processor's external reference: replaying any
// prefix, suffix, or permutation of the feed converges to the same rows.
type Processor struct {
	verifier billing.SignatureVerifier
	client   billing.Processor
	ledger   Ledger
	subs     subscription.Store
	orders   subscription.OrderStore
	log      *slog.Logger
}

// NewProcessor wires the webhook processor. Panics on nil dependencies to
// fail fast during initialization.
func NewProcessor(verifier billing.SignatureVerifier, client billing.Processor, ledger Ledger, subs subscription.Store, orders subscription.OrderStore, log *slog.Logger) *Processor {
	if verifier == nil {
		panic("webhook: signature verifier is required")
	}
	if client == nil {
		panic("webhook: payment processor client is required")
	}
	if ledger == nil {
		panic("webhook: idempotency ledger is required")
	}
	if subs == nil {
		panic("webhook: subscription store is required")
	}
	if orders == nil {
		panic("webhook: order store is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Processor{
		verifier: verifier,
		client:   client,
		ledger:   ledger,
		subs:     subs,
		orders:   orders,
		log:      log,
	}
}

// Handle processes one delivery. The error taxonomy maps to the HTTP
// response the endpoint sends back:
//
//   - billing.ErrInvalidSignature, ErrMalformedEvent: terminal, 4xx, the
//     source must not redeliver.
//   - ErrHandlerFailed: transient, 5xx, the source redelivers later.
//   - nil: acknowledged, including duplicates and unknown event types.
func (p *Processor) Handle(ctx context.Context, payload []byte, signature string) error {
	event, err := p.verifier.VerifyAndParse(payload, signature)
	if err != nil {
		// Potential security event: someone is posting to the endpoint with
		// a bad or missing signature.
		p.log.WarnContext(ctx, "webhook signature verification failed", "error", err)
		return err
	}

	seen, err := p.ledger.Seen(ctx, event.ID)
	if err != nil {
		return errors.Join(ErrHandlerFailed, err)
	}
	if seen {
		p.log.DebugContext(ctx, "duplicate webhook delivery", "event_id", event.ID, "event_type", event.Type)
		return nil
	}

	if err := p.dispatch(ctx, event); err != nil {
		if errors.Is(err, ErrMalformedEvent) {
			p.log.ErrorContext(ctx, "malformed webhook payload",
				"event_id", event.ID, "event_type", event.Type, "error", err)
			return err
		}
		p.log.ErrorContext(ctx, "webhook handler failed",
			"event_id", event.ID, "event_type", event.Type, "error", err)
		return errors.Join(ErrHandlerFailed, err)
	}

	// Recorded only after the domain write succeeded. A concurrent delivery
	// may have recorded first; both executed idempotent upserts, so the
	// duplicate-key loser simply acknowledges. A failed Record is logged and
	// acknowledged too: redelivery re-runs an idempotent handler, which is
	// cheaper than asking the source to retry a write that already landed.
	if err := p.ledger.Record(ctx, event.ID); err != nil && !errors.Is(err, ErrAlreadyProcessed) {
		p.log.WarnContext(ctx, "failed to record processed event",
			"event_id", event.ID, "error", err)
	}

	return nil
}

func (p *Processor) dispatch(ctx context.Context, event *billing.Event) error {
	switch EventKind(event.Type) {
	case KindCheckoutCompleted:
		data, err := decodeEvent[CheckoutCompleted](event)
		if err != nil {
			return err
		}
		return p.handleCheckoutCompleted(ctx, data)

	case KindInvoicePaid:
		data, err := decodeEvent[InvoicePaid](event)
		if err != nil {
			return err
		}
		return p.handleInvoicePaid(ctx, data)

	case KindSubscriptionUpdated:
		data, err := decodeEvent[SubscriptionChange](event)
		if err != nil {
			return err
		}
		return p.handleSubscriptionChange(ctx, data, false)

	case KindSubscriptionDeleted:
		data, err := decodeEvent[SubscriptionChange](event)
		if err != nil {
			return err
		}
		return p.handleSubscriptionChange(ctx, data, true)

	default:
		// Forward compatibility: acknowledge without acting.
		p.log.DebugContext(ctx, "ignoring unknown webhook event type",
			"event_id", event.ID, "event_type", event.Type)
		return nil
	}
}

// handleCheckoutCompleted creates the local record a finished checkout
// implies: a subscription mirror in subscription mode, an order in payment
// mode.
func (p *Processor) handleCheckoutCompleted(ctx context.Context, data *CheckoutCompleted) error {
	switch billing.CheckoutMode(data.Mode) {
	case billing.ModeSubscription:
		return p.upsertFromRemote(ctx, data.SubscriptionRef)

	case billing.ModePayment:
		items, err := p.client.ListCheckoutLineItems(ctx, data.SessionRef)
		if err != nil {
			return err
		}

		orderItems := make([]subscription.OrderItem, 0, len(items))
		for _, item := range items {
			orderItems = append(orderItems, subscription.OrderItem{
				ProductRef:      item.ProductRef,
				Quantity:        item.Quantity,
				PriceMinorUnits: item.AmountMinorUnits,
			})
		}

		paymentRef := data.PaymentIntentRef
		if paymentRef == "" {
			paymentRef = data.SessionRef
		}

		return p.orders.CreateFromCheckout(ctx, subscription.Order{
			UserID:             data.ClientReferenceID,
			ExternalPaymentRef: paymentRef,
			TotalMinorUnits:    data.AmountTotal,
			Currency:           data.Currency,
			Status:             subscription.OrderProcessing,
			Items:              orderItems,
		})

	default:
		p.log.DebugContext(ctx, "checkout completed with unhandled mode", "mode", data.Mode)
		return nil
	}
}

// handleInvoicePaid re-fetches the subscription for authoritative period
// bounds. Invoices without a subscription are one-off and acknowledged.
func (p *Processor) handleInvoicePaid(ctx context.Context, data *InvoicePaid) error {
	if data.SubscriptionRef == "" {
		return nil
	}

	if _, err := p.subs.FindByExternalRef(ctx, data.SubscriptionRef); err != nil {
		if errors.Is(err, subscription.ErrSubscriptionNotFound) {
			// Recoverable inconsistency: invoice-paid raced ahead of
			// checkout-completed, or the checkout event was lost. The upsert
			// below creates a best-effort row rather than dropping the event.
			p.log.WarnContext(ctx, "invoice paid for unknown subscription, creating best-effort row",
				"external_ref", data.SubscriptionRef)
		} else {
			return err
		}
	}

	return p.upsertFromRemote(ctx, data.SubscriptionRef)
}

// handleSubscriptionChange applies updated/deleted events straight from the
// event payload; deletion marks the row canceled and keeps it.
func (p *Processor) handleSubscriptionChange(ctx context.Context, data *SubscriptionChange, deleted bool) error {
	fields := fieldsFromChange(data)

	if deleted {
		status := subscription.StatusCanceled
		fields.Status = &status
	}

	_, err := p.subs.UpsertByExternalRef(ctx, data.Ref, fields)
	return err
}

// upsertFromRemote pulls the processor's current subscription state and
// mirrors it locally, correlating user and plan through the metadata
// attached at checkout time.
func (p *Processor) upsertFromRemote(ctx context.Context, externalRef string) error {
	remote, err := p.client.GetSubscription(ctx, externalRef)
	if err != nil {
		return err
	}

	status := subscription.Status(remote.Status)
	cancelState := subscription.CancelNone
	if remote.CancelAtPeriodEnd {
		cancelState = subscription.CancelConfirmedExternally
	}

	fields := subscription.Fields{
		Status:             &status,
		CurrentPeriodStart: &remote.CurrentPeriodStart,
		CurrentPeriodEnd:   &remote.CurrentPeriodEnd,
		CancelState:        &cancelState,
	}
	if userID := remote.Metadata[billing.MetadataUserID]; userID != "" {
		fields.UserID = &userID
	}
	if planID := remote.Metadata[billing.MetadataPlanID]; planID != "" {
		fields.PlanID = &planID
	}

	_, err = p.subs.UpsertByExternalRef(ctx, externalRef, fields)
	return err
}

func fieldsFromChange(data *SubscriptionChange) subscription.Fields {
	status := subscription.Status(data.Status)
	cancelState := subscription.CancelNone
	if data.CancelAtPeriodEnd {
		cancelState = subscription.CancelConfirmedExternally
	}

	fields := subscription.Fields{
		Status:      &status,
		CancelState: &cancelState,
	}
	if data.CurrentPeriodStart > 0 {
		start := unixUTC(data.CurrentPeriodStart)
		fields.CurrentPeriodStart = &start
	}
	if data.CurrentPeriodEnd > 0 {
		end := unixUTC(data.CurrentPeriodEnd)
		fields.CurrentPeriodEnd = &end
	}
	if userID := data.Metadata[billing.MetadataUserID]; userID != "" {
		fields.UserID = &userID
	}
	if planID := data.Metadata[billing.MetadataPlanID]; planID != "" {
		fields.PlanID = &planID
	}
	return fields
}

func unixUTC(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
