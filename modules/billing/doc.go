// Package billing exposes the billing engine over HTTP: the payment
// processor's webhook endpoint, checkout session creation, cancellation, and
// per-user dashboard reads. Mount the Service router under the storefront's
// API prefix; user identity arrives through an injected UserResolver so the
// module stays agnostic of the auth layer.
package billing
