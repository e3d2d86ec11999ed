package billing

import "errors"

var (
	ErrPlanInactive       = errors.New("plan is not active")
	ErrUserNotFound       = errors.New("user not found")
	ErrPriceNotFound      = errors.New("price not found on payment processor")
	ErrProvisioningFailed = errors.New("failed to provision external product and price")
	ErrCheckoutFailed     = errors.New("failed to create checkout session")
	ErrCancellationFailed = errors.New("failed to request cancellation")
	ErrExternalService    = errors.New("payment processor request failed")
	ErrInvalidSignature   = errors.New("webhook signature verification failed")
	ErrMissingAPIKey      = errors.New("payment processor API key is required")
	ErrMissingWebhookKey  = errors.New("payment processor webhook secret is required")
	ErrNoCheckoutURL      = errors.New("no checkout URL returned from payment processor")
	ErrNothingToCheckout  = errors.New("checkout requires at least one line item")
)
