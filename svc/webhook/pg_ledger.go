package webhook

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitalsupply/storefront/pkg/pg"
)

// PGLedger stores processed event IDs in PostgreSQL. The primary key over
// external_event_id is the uniqueness constraint the idempotency gate
// requires.
type PGLedger struct {
	pool *pgxpool.Pool
}

// NewPGLedger returns a ledger backed by the given pool.
func NewPGLedger(pool *pgxpool.Pool) *PGLedger {
	return &PGLedger{pool: pool}
}

func (l *PGLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM processed_events WHERE external_event_id = $1)`

	var exists bool
	if err := l.pool.QueryRow(ctx, q, eventID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (l *PGLedger) Record(ctx context.Context, eventID string) error {
	const q = `INSERT INTO processed_events (external_event_id, processed_at) VALUES ($1, now())`

	if _, err := l.pool.Exec(ctx, q, eventID); err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrAlreadyProcessed
		}
		return err
	}
	return nil
}
