// Package webhook turns the payment processor's event feed into local
// subscription and order state.
//
// Deliveries arrive at least once and in no guaranteed order. The processor
// handles this with two mechanisms: an idempotency ledger keyed by the
// external event ID deduplicates redeliveries, and every domain write is an
// upsert keyed by external references so replays and reorderings converge to
// the same rows. Signature verification over the raw payload gates
// everything; unverified bytes never reach a handler.
//
// Ledger implementations exist for memory, PostgreSQL, and Redis. Pick one
// at wiring time; the dispatch pipeline is identical across them.
package webhook
