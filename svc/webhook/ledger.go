package webhook

import "context"

// Ledger is the ProcessedEvent idempotency record set. Record must be a
// uniqueness-constrained insert: under concurrent deliveries of the same
// event ID exactly one insert succeeds and the rest get ErrAlreadyProcessed.
//
// The ledger entry is written after the domain write, not before. Domain
// writes are idempotent upserts keyed by external references, so two
// concurrent deliveries both executing a handler converge to the same rows,
// while a failed write leaves no ledger entry and redelivery retries it.
type Ledger interface {
	// Seen reports whether the event ID is already recorded.
	Seen(ctx context.Context, eventID string) (bool, error)

	// Record inserts the event ID, returning ErrAlreadyProcessed if present.
	Record(ctx context.Context, eventID string) error
}
