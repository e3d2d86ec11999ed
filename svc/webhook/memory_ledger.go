package webhook

import (
	"context"
	"sync"
	"time"
)

// MemoryLedger is the in-memory Ledger implementation.
type MemoryLedger struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewMemoryLedger returns an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{seen: make(map[string]time.Time)}
}

func (l *MemoryLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.seen[eventID]
	return ok, nil
}

func (l *MemoryLedger) Record(ctx context.Context, eventID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[eventID]; ok {
		return ErrAlreadyProcessed
	}
	l.seen[eventID] = time.Now().UTC()
	return nil
}
