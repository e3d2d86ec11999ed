package webhook

import (
	"encoding/json"
	"errors"

	"github.com/vitalsupply/storefront/svc/billing"
)

// EventKind enumerates the processor notifications this engine acts on.
// Anything else is an unknown event: acknowledged, never dispatched, so new
// processor event types cannot crash or wedge the feed.
type EventKind string

const (
	KindCheckoutCompleted   EventKind = "checkout.session.completed"
	KindInvoicePaid         EventKind = "invoice.payment_succeeded"
	KindSubscriptionUpdated EventKind = "customer.subscription.updated"
	KindSubscriptionDeleted EventKind = "customer.subscription.deleted"
)

// CheckoutCompleted is the payload of a completed checkout session. Mode
// decides the handler: "subscription" creates/updates a subscription mirror,
// "payment" records a one-time order.
type CheckoutCompleted struct {
	SessionRef        string `json:"id"`
	Mode              string `json:"mode"`
	SubscriptionRef   string `json:"subscription"`
	ClientReferenceID string `json:"client_reference_id"`
	PaymentIntentRef  string `json:"payment_intent"`
	AmountTotal       int64  `json:"amount_total"`
	Currency          string `json:"currency"`
}

// InvoicePaid carries the subscription a recurring invoice settled for.
// One-off invoices have no subscription and are acknowledged without action.
type InvoicePaid struct {
	SubscriptionRef string `json:"subscription"`
}

// SubscriptionChange is the subscription object embedded in updated/deleted
// events. Period bounds are unix seconds, as the processor reports them.
type SubscriptionChange struct {
	Ref                string            `json:"id"`
	Status             string            `json:"status"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	Metadata           map[string]string `json:"metadata"`
}

// ErrMalformedEvent indicates the verified payload's data object could not be
// decoded into the expected shape. Terminal for the delivery; redelivering
// the same bytes cannot succeed.
var ErrMalformedEvent = errors.New("malformed webhook event payload")

func decodeEvent[T any](event *billing.Event) (*T, error) {
	var out T
	if err := json.Unmarshal(event.Data, &out); err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}
	return &out, nil
}
