// Package billing is the outbound half of the billing synchronization
// engine: it creates checkout transactions on the external payment
// processor, provisions billable products and prices on demand, and requests
// cancellations.
//
// The processor is the source of truth for money movement. Nothing in this
// package writes local subscription or order state (the cancellation
// coordinator's optimistic intent mark excepted); local records are created
// and updated exclusively by the webhook processor once the external side
// has committed.
//
// The Processor and SignatureVerifier interfaces isolate the Stripe SDK in
// stripe.go; every other file in the package is processor-agnostic.
package billing
