package catalog

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store implementation. Used in tests and in
// single-node deployments that seed the catalog from a file at boot.
type MemoryStore struct {
	mu    sync.RWMutex
	plans map[string]Plan
}

// NewMemoryStore returns an empty in-memory plan store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{plans: make(map[string]Plan)}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return &plan, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Plan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, p)
	}
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, plan Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[plan.ID]; exists {
		return ErrPlanAlreadyExists
	}
	s.plans[plan.ID] = plan
	return nil
}

func (s *MemoryStore) UpdateExternalRefs(ctx context.Context, planID, observedProductRef, observedPriceRef, newProductRef, newPriceRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, ok := s.plans[planID]
	if !ok {
		return ErrPlanNotFound
	}
	if plan.ExternalProductRef != observedProductRef || plan.ExternalPriceRef != observedPriceRef {
		return ErrRefConflict
	}

	plan.ExternalProductRef = newProductRef
	plan.ExternalPriceRef = newPriceRef
	s.plans[planID] = plan
	return nil
}
