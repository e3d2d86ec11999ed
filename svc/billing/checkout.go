package billing

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vitalsupply/storefront/svc/catalog"
)

// MetadataUserID and MetadataPlanID are the keys of the correlation metadata
// attached to external subscriptions at checkout. The webhook processor reads
// them back when the subscription's lifecycle events arrive.
const (
	MetadataUserID = "user_id"
	MetadataPlanID = "plan_id"
)

// CheckoutOrchestrator builds checkout transactions for users. It validates
// inputs, heals price refs through the provisioner, and hands the user a
// redirect URL. It never writes subscription or order state: local records
// exist only once a webhook confirms the processor's side.
type CheckoutOrchestrator struct {
	plans       catalog.Store
	users       UserDirectory
	provisioner *Provisioner
	processor   Processor
	log         *slog.Logger
}

// NewCheckoutOrchestrator wires the orchestrator. Panics on nil dependencies
// to fail fast during initialization.
func NewCheckoutOrchestrator(plans catalog.Store, users UserDirectory, provisioner *Provisioner, processor Processor, log *slog.Logger) *CheckoutOrchestrator {
	if plans == nil {
		panic("billing: catalog store is required")
	}
	if users == nil {
		panic("billing: user directory is required")
	}
	if provisioner == nil {
		panic("billing: provisioner is required")
	}
	if processor == nil {
		panic("billing: payment processor is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &CheckoutOrchestrator{
		plans:       plans,
		users:       users,
		provisioner: provisioner,
		processor:   processor,
		log:         log,
	}
}

// CreateSubscriptionCheckout creates a subscription-mode checkout for the
// user and plan. Errors surface unchanged to the caller; nothing is retried
// here, the user retries by re-invoking checkout.
func (o *CheckoutOrchestrator) CreateSubscriptionCheckout(ctx context.Context, userID, planID string) (*CheckoutSession, error) {
	plan, err := o.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.Active {
		return nil, ErrPlanInactive
	}

	user, err := o.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Email == "" {
		return nil, errors.Join(ErrUserNotFound, errors.New("user has no email"))
	}

	priceRef, err := o.provisioner.EnsurePriceRef(ctx, plan.ID)
	if err != nil {
		return nil, err
	}

	session, err := o.processor.CreateCheckoutSession(ctx, CheckoutSessionRequest{
		Mode:              ModeSubscription,
		PriceRef:          priceRef,
		CustomerEmail:     user.Email,
		ClientReferenceID: user.ID,
		SubscriptionMetadata: map[string]string{
			MetadataUserID: user.ID,
			MetadataPlanID: plan.ID,
		},
		AllowPromotionCodes: true,
	})
	if err != nil {
		if errors.Is(err, ErrExternalService) {
			return nil, errors.Join(ErrCheckoutFailed, err)
		}
		return nil, err
	}

	o.log.InfoContext(ctx, "created subscription checkout",
		"user_id", user.ID, "plan_id", plan.ID, "session_ref", session.SessionRef)
	return session, nil
}

// CreateOrderCheckout creates a payment-mode checkout for a one-time
// purchase of the given items.
func (o *CheckoutOrchestrator) CreateOrderCheckout(ctx context.Context, userID string, items []PaymentItem) (*CheckoutSession, error) {
	if len(items) == 0 {
		return nil, ErrNothingToCheckout
	}

	user, err := o.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	session, err := o.processor.CreateCheckoutSession(ctx, CheckoutSessionRequest{
		Mode:              ModePayment,
		Items:             items,
		CustomerEmail:     user.Email,
		ClientReferenceID: user.ID,
	})
	if err != nil {
		if errors.Is(err, ErrExternalService) {
			return nil, errors.Join(ErrCheckoutFailed, err)
		}
		return nil, err
	}

	o.log.InfoContext(ctx, "created order checkout",
		"user_id", user.ID, "items", len(items), "session_ref", session.SessionRef)
	return session, nil
}
