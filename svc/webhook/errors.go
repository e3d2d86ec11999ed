package webhook

import "errors"

var (
	// ErrAlreadyProcessed is returned by a Ledger when the event ID has been
	// recorded before. Exactly one concurrent recorder wins; everyone else
	// sees this and treats the event as done.
	ErrAlreadyProcessed = errors.New("event already processed")

	// ErrHandlerFailed wraps domain-write failures after a verified event.
	// Surfacing it (HTTP 5xx) tells the processor to redeliver; swallowing
	// it would permanently desync local and external state.
	ErrHandlerFailed = errors.New("webhook handler failed")
)
