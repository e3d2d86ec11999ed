package billing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	svcbilling "github.com/vitalsupply/storefront/svc/billing"
	"github.com/vitalsupply/storefront/svc/subscription"
	"github.com/vitalsupply/storefront/svc/webhook"
)

// UserResolver extracts the authenticated user ID from a request.
// Authentication itself lives outside this module; the storefront mounts the
// router behind whatever auth middleware it runs and injects a resolver that
// reads its contract.
type UserResolver func(r *http.Request) (string, error)

// HeaderUserResolver reads the user ID from the given header. It is the
// default resolver and suits deployments where an auth proxy sets the header.
func HeaderUserResolver(header string) UserResolver {
	return func(r *http.Request) (string, error) {
		id := r.Header.Get(header)
		if id == "" {
			return "", ErrUnauthenticated
		}
		return id, nil
	}
}

// Service is the billing HTTP surface: the webhook endpoint, checkout
// creation, cancellation, and dashboard reads.
type Service struct {
	checkout     *svcbilling.CheckoutOrchestrator
	cancellation *svcbilling.CancellationCoordinator
	events       *webhook.Processor
	subs         subscription.Store
	orders       subscription.OrderStore
	resolveUser  UserResolver
	log          *slog.Logger
}

// ServiceOptions carries the Service dependencies. Checkout, Cancellation,
// Events, Subscriptions, and Orders are required; Resolver defaults to
// reading the X-User-ID header and Logger to a discard logger.
type ServiceOptions struct {
	Checkout      *svcbilling.CheckoutOrchestrator
	Cancellation  *svcbilling.CancellationCoordinator
	Events        *webhook.Processor
	Subscriptions subscription.Store
	Orders        subscription.OrderStore
	Resolver      UserResolver
	Logger        *slog.Logger
}

func NewService(opts ServiceOptions) *Service {
	if opts.Checkout == nil {
		panic("billing module: checkout orchestrator is required")
	}
	if opts.Cancellation == nil {
		panic("billing module: cancellation coordinator is required")
	}
	if opts.Events == nil {
		panic("billing module: webhook processor is required")
	}
	if opts.Subscriptions == nil {
		panic("billing module: subscription store is required")
	}
	if opts.Orders == nil {
		panic("billing module: order store is required")
	}
	if opts.Resolver == nil {
		opts.Resolver = HeaderUserResolver("X-User-ID")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		checkout:     opts.Checkout,
		cancellation: opts.Cancellation,
		events:       opts.Events,
		subs:         opts.Subscriptions,
		orders:       opts.Orders,
		resolveUser:  opts.Resolver,
		log:          opts.Logger,
	}
}

// Handle returns the module router.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Mount("/billing", billing.NewService(opts).Handle())
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/webhooks/payment", s.handleWebhook)

	r.Post("/checkout/subscription", s.handleSubscriptionCheckout)
	r.Post("/checkout/order", s.handleOrderCheckout)

	r.Post("/subscriptions/cancel", s.handleCancel)
	r.Get("/subscriptions", s.handleListSubscriptions)
	r.Get("/orders", s.handleListOrders)

	return r
}
