// Package subscription is the authoritative local mirror of subscription and
// order state. The payment processor owns money movement; this package owns
// nothing more than the storefront's view of it, which is why every write is
// an upsert keyed by the processor's external reference: webhook deliveries
// arrive at least once and possibly reordered, and replaying any of them must
// converge to the same rows.
//
// Only webhook handlers mutate subscription rows, with one exception: the
// cancellation coordinator marks cancellation intent (CancelState) and
// nothing else.
package subscription
