package subscription

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is the in-memory Store implementation.
type MemoryStore struct {
	mu    sync.RWMutex
	byRef map[string]Subscription
}

// NewMemoryStore returns an empty in-memory subscription store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byRef: make(map[string]Subscription)}
}

func (s *MemoryStore) UpsertByExternalRef(ctx context.Context, externalRef string, fields Fields) (*Subscription, error) {
	if externalRef == "" {
		return nil, ErrMissingExternalRef
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	sub, exists := s.byRef[externalRef]
	if !exists {
		sub = Subscription{
			ID:          uuid.New(),
			ExternalRef: externalRef,
			Status:      StatusIncomplete,
			CancelState: CancelNone,
			CreatedAt:   now,
		}
	}

	applyFields(&sub, fields)
	sub.UpdatedAt = now
	s.byRef[externalRef] = sub

	out := sub
	return &out, nil
}

func (s *MemoryStore) FindByExternalRef(ctx context.Context, externalRef string) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.byRef[externalRef]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	out := sub
	return &out, nil
}

func (s *MemoryStore) FindActiveByUserID(ctx context.Context, userID string) ([]Subscription, error) {
	return s.findByUser(userID, true), nil
}

func (s *MemoryStore) FindByUserID(ctx context.Context, userID string) ([]Subscription, error) {
	return s.findByUser(userID, false), nil
}

func (s *MemoryStore) findByUser(userID string, activeOnly bool) []Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Subscription
	for _, sub := range s.byRef {
		if sub.UserID != userID {
			continue
		}
		if activeOnly && !sub.IsActive() {
			continue
		}
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func applyFields(sub *Subscription, fields Fields) {
	if fields.UserID != nil {
		sub.UserID = *fields.UserID
	}
	if fields.PlanID != nil {
		sub.PlanID = *fields.PlanID
	}
	if fields.Status != nil {
		sub.Status = *fields.Status
	}
	if fields.CurrentPeriodStart != nil {
		sub.CurrentPeriodStart = *fields.CurrentPeriodStart
	}
	if fields.CurrentPeriodEnd != nil {
		sub.CurrentPeriodEnd = *fields.CurrentPeriodEnd
	}
	if fields.CancelState != nil {
		sub.CancelState = *fields.CancelState
	}
}

// MemoryOrderStore is the in-memory OrderStore implementation.
type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[string]Order // keyed by ExternalPaymentRef
}

// NewMemoryOrderStore returns an empty in-memory order store.
func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{orders: make(map[string]Order)}
}

func (s *MemoryOrderStore) CreateFromCheckout(ctx context.Context, order Order) error {
	if order.ExternalPaymentRef == "" {
		return ErrMissingExternalRef
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Replayed delivery: the first write already recorded the order.
	if _, exists := s.orders[order.ExternalPaymentRef]; exists {
		return nil
	}

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	s.orders[order.ExternalPaymentRef] = order
	return nil
}

func (s *MemoryOrderStore) FindByUserID(ctx context.Context, userID string) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
