package billing

import (
	"context"
	"encoding/json"
	"time"
)

// CheckoutMode selects the kind of checkout transaction created on the
// processor: recurring subscription or one-time payment.
type CheckoutMode string

const (
	ModeSubscription CheckoutMode = "subscription"
	ModePayment      CheckoutMode = "payment"
)

// PriceRecurrence is the processor-side billing cadence of a price. The
// catalog's quarter interval is expressed here as month with a count of 3
// because the processor has no native quarterly unit.
type PriceRecurrence struct {
	Interval      string // "month" or "year"
	IntervalCount int64
}

// PaymentItem is an ad-hoc line item for payment-mode checkouts, priced
// inline rather than referencing a catalog price.
type PaymentItem struct {
	Name             string
	AmountMinorUnits int64
	Quantity         int64
}

// CheckoutSessionRequest describes the checkout transaction to create.
//
// SubscriptionMetadata is attached to the resulting external subscription,
// not the session: by the time lifecycle events for the subscription arrive
// there is no session context left, so this metadata is the only correlation
// key the webhook processor has.
type CheckoutSessionRequest struct {
	Mode                 CheckoutMode
	PriceRef             string        // subscription mode
	Items                []PaymentItem // payment mode
	CustomerEmail        string
	ClientReferenceID    string // local user ID, echoed back on the session
	SubscriptionMetadata map[string]string
	SuccessURL           string
	CancelURL            string
	AllowPromotionCodes  bool
}

// CheckoutSession is the created processor-hosted checkout.
type CheckoutSession struct {
	SessionRef string
	URL        string
}

// RemoteSubscription is the processor's current view of a subscription,
// re-fetched by webhook handlers to get authoritative period bounds and the
// correlation metadata attached at checkout time.
type RemoteSubscription struct {
	Ref                string
	Status             string
	Metadata           map[string]string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
}

// SessionLineItem is a purchased line item of a completed payment-mode
// checkout, as reported by the processor.
type SessionLineItem struct {
	ProductRef       string
	Quantity         int64
	AmountMinorUnits int64
}

// Processor is the payment-processor client consumed by the billing core.
// All calls are network RPCs; implementations bound them with the configured
// timeout and map processor error codes onto this package's error taxonomy.
type Processor interface {
	// CreateProduct creates an external product and returns its reference.
	CreateProduct(ctx context.Context, name, description string) (string, error)

	// CreatePrice creates an external recurring price under the product.
	CreatePrice(ctx context.Context, productRef string, amountMinorUnits int64, rec PriceRecurrence) (string, error)

	// RetrievePrice resolves a price reference. Returns ErrPriceNotFound for
	// an unknown or invalid ref and ErrExternalService for transport failures,
	// so callers can tell "provision a new one" apart from "try again later".
	RetrievePrice(ctx context.Context, priceRef string) error

	// CreateCheckoutSession creates a hosted checkout transaction and returns
	// its redirect URL.
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)

	// GetSubscription fetches the processor's current subscription state.
	GetSubscription(ctx context.Context, externalRef string) (*RemoteSubscription, error)

	// SetCancelAtPeriodEnd flags the subscription to end at period close.
	SetCancelAtPeriodEnd(ctx context.Context, externalRef string, cancel bool) error

	// ListCheckoutLineItems returns the line items of a completed session.
	ListCheckoutLineItems(ctx context.Context, sessionRef string) ([]SessionLineItem, error)
}

// Event is a verified, minimally parsed processor notification. Data holds
// the raw event object for the typed webhook layer to decode.
type Event struct {
	ID   string
	Type string
	Data json.RawMessage
}

// SignatureVerifier authenticates a raw webhook payload against its
// signature header and returns the parsed event. Verification runs over the
// raw bytes; an unverified payload is never parsed into handler input.
type SignatureVerifier interface {
	VerifyAndParse(payload []byte, signature string) (*Event, error)
}
