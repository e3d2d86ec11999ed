package billing

import (
	"context"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/checkout/session"
	"github.com/stripe/stripe-go/v74/price"
	"github.com/stripe/stripe-go/v74/product"
	sub "github.com/stripe/stripe-go/v74/subscription"
	"github.com/stripe/stripe-go/v74/webhook"
)

// StripeConfig holds configuration for the Stripe gateway.
type StripeConfig struct {
	APIKey         string        `env:"STRIPE_API_KEY,required"`
	WebhookSecret  string        `env:"STRIPE_WEBHOOK_SECRET,required"`
	Currency       string        `env:"STRIPE_CURRENCY" envDefault:"usd"`
	RequestTimeout time.Duration `env:"STRIPE_REQUEST_TIMEOUT" envDefault:"15s"`
	SuccessURL     string        `env:"CHECKOUT_SUCCESS_URL,required"`
	CancelURL      string        `env:"CHECKOUT_CANCEL_URL,required"`
}

// StripeGateway implements Processor and SignatureVerifier against Stripe.
//
// The constructor sets the package-global stripe.Key; the storefront talks to
// a single Stripe account, so per-request keys are not needed.
type StripeGateway struct {
	cfg StripeConfig
}

// NewStripeGateway validates the config and returns a ready gateway.
func NewStripeGateway(cfg StripeConfig) (*StripeGateway, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookKey
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	stripe.Key = cfg.APIKey

	return &StripeGateway{cfg: cfg}, nil
}

// callParams bounds the request with the configured timeout and returns the
// params plus the cancel func the caller must defer.
func (g *StripeGateway) callParams(ctx context.Context) (stripe.Params, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
	return stripe.Params{Context: ctx}, cancel
}

func (g *StripeGateway) CreateProduct(ctx context.Context, name, description string) (string, error) {
	params, cancel := g.callParams(ctx)
	defer cancel()

	productParams := &stripe.ProductParams{
		Params: params,
		Name:   stripe.String(name),
	}
	if description != "" {
		productParams.Description = stripe.String(description)
	}

	p, err := product.New(productParams)
	if err != nil {
		return "", errors.Join(ErrExternalService, err)
	}
	return p.ID, nil
}

func (g *StripeGateway) CreatePrice(ctx context.Context, productRef string, amountMinorUnits int64, rec PriceRecurrence) (string, error) {
	params, cancel := g.callParams(ctx)
	defer cancel()

	pr, err := price.New(&stripe.PriceParams{
		Params:     params,
		Product:    stripe.String(productRef),
		UnitAmount: stripe.Int64(amountMinorUnits),
		Currency:   stripe.String(g.cfg.Currency),
		Recurring: &stripe.PriceRecurringParams{
			Interval:      stripe.String(rec.Interval),
			IntervalCount: stripe.Int64(rec.IntervalCount),
		},
	})
	if err != nil {
		return "", errors.Join(ErrExternalService, err)
	}
	return pr.ID, nil
}

func (g *StripeGateway) RetrievePrice(ctx context.Context, priceRef string) error {
	params, cancel := g.callParams(ctx)
	defer cancel()

	if _, err := price.Get(priceRef, &stripe.PriceParams{Params: params}); err != nil {
		if isStripeNotFound(err) {
			return ErrPriceNotFound
		}
		return errors.Join(ErrExternalService, err)
	}
	return nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	params, cancel := g.callParams(ctx)
	defer cancel()

	sessionParams := &stripe.CheckoutSessionParams{
		Params:                   params,
		Mode:                     stripe.String(string(req.Mode)),
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		BillingAddressCollection: stripe.String("auto"),
		SuccessURL:               stripe.String(g.cfg.SuccessURL),
		CancelURL:                stripe.String(g.cfg.CancelURL),
	}
	if req.SuccessURL != "" {
		sessionParams.SuccessURL = stripe.String(req.SuccessURL)
	}
	if req.CancelURL != "" {
		sessionParams.CancelURL = stripe.String(req.CancelURL)
	}
	if req.CustomerEmail != "" {
		sessionParams.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if req.ClientReferenceID != "" {
		sessionParams.ClientReferenceID = stripe.String(req.ClientReferenceID)
	}
	if req.AllowPromotionCodes {
		sessionParams.AllowPromotionCodes = stripe.Bool(true)
	}

	switch req.Mode {
	case ModeSubscription:
		if req.PriceRef == "" {
			return nil, ErrNothingToCheckout
		}
		sessionParams.LineItems = []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(req.PriceRef),
			Quantity: stripe.Int64(1),
		}}
		if len(req.SubscriptionMetadata) > 0 {
			sessionParams.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
				Metadata: req.SubscriptionMetadata,
			}
		}
	case ModePayment:
		if len(req.Items) == 0 {
			return nil, ErrNothingToCheckout
		}
		for _, item := range req.Items {
			sessionParams.LineItems = append(sessionParams.LineItems, &stripe.CheckoutSessionLineItemParams{
				Quantity: stripe.Int64(item.Quantity),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(g.cfg.Currency),
					UnitAmount: stripe.Int64(item.AmountMinorUnits),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(item.Name),
					},
				},
			})
		}
	default:
		return nil, errors.Join(ErrCheckoutFailed, errors.New("unsupported checkout mode"))
	}

	s, err := session.New(sessionParams)
	if err != nil {
		return nil, errors.Join(ErrExternalService, err)
	}
	if s.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutSession{SessionRef: s.ID, URL: s.URL}, nil
}

func (g *StripeGateway) GetSubscription(ctx context.Context, externalRef string) (*RemoteSubscription, error) {
	params, cancel := g.callParams(ctx)
	defer cancel()

	s, err := sub.Get(externalRef, &stripe.SubscriptionParams{Params: params})
	if err != nil {
		return nil, errors.Join(ErrExternalService, err)
	}

	return &RemoteSubscription{
		Ref:                s.ID,
		Status:             string(s.Status),
		Metadata:           s.Metadata,
		CurrentPeriodStart: time.Unix(s.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:   time.Unix(s.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
	}, nil
}

func (g *StripeGateway) SetCancelAtPeriodEnd(ctx context.Context, externalRef string, cancel bool) error {
	params, cancelFn := g.callParams(ctx)
	defer cancelFn()

	_, err := sub.Update(externalRef, &stripe.SubscriptionParams{
		Params:            params,
		CancelAtPeriodEnd: stripe.Bool(cancel),
	})
	if err != nil {
		return errors.Join(ErrExternalService, err)
	}
	return nil
}

func (g *StripeGateway) ListCheckoutLineItems(ctx context.Context, sessionRef string) ([]SessionLineItem, error) {
	params, cancel := g.callParams(ctx)
	defer cancel()

	iter := session.ListLineItems(&stripe.CheckoutSessionListLineItemsParams{
		ListParams: stripe.ListParams{Context: params.Context},
		Session:    stripe.String(sessionRef),
	})

	var items []SessionLineItem
	for iter.Next() {
		li := iter.LineItem()
		item := SessionLineItem{
			Quantity:         li.Quantity,
			AmountMinorUnits: li.AmountTotal,
		}
		if item.Quantity == 0 {
			item.Quantity = 1
		}
		if li.Price != nil && li.Price.Product != nil {
			item.ProductRef = li.Price.Product.ID
		}
		items = append(items, item)
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Join(ErrExternalService, err)
	}
	return items, nil
}

// VerifyAndParse implements SignatureVerifier using Stripe's HMAC scheme over
// the raw payload.
func (g *StripeGateway) VerifyAndParse(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.cfg.WebhookSecret)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}

	return &Event{
		ID:   event.ID,
		Type: string(event.Type),
		Data: event.Data.Raw,
	}, nil
}

func isStripeNotFound(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.HTTPStatusCode == 404 || stripeErr.Code == stripe.ErrorCodeResourceMissing
	}
	return false
}
