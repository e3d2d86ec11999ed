package webhook

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLedger stores processed event IDs in Redis using SET NX as the
// uniqueness-constrained insert. Entries carry a TTL: the processor stops
// redelivering an event long before the TTL expires, so a bounded window is
// enough and the key space does not grow forever.
type RedisLedger struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewRedisLedger returns a ledger on the given client. A non-positive ttl
// defaults to 30 days.
func NewRedisLedger(client redis.UniversalClient, ttl time.Duration) *RedisLedger {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &RedisLedger{client: client, ttl: ttl, prefix: "billing:processed_event:"}
}

func (l *RedisLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := l.client.Exists(ctx, l.prefix+eventID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (l *RedisLedger) Record(ctx context.Context, eventID string) error {
	ok, err := l.client.SetNX(ctx, l.prefix+eventID, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyProcessed
	}
	return nil
}
