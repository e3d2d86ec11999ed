package catalog

import "context"

// Store is the plan repository consumed by the billing core. The underlying
// engine (in-memory or PostgreSQL) is selected once at process startup.
type Store interface {
	// Get retrieves a plan by ID. Returns ErrPlanNotFound if missing.
	Get(ctx context.Context, id string) (*Plan, error)

	// List returns all plans, active or not.
	List(ctx context.Context) ([]Plan, error)

	// Create inserts a new plan. Returns ErrPlanAlreadyExists on ID collision.
	Create(ctx context.Context, plan Plan) error

	// UpdateExternalRefs writes freshly provisioned processor refs onto the
	// plan, but only if the stored refs still match the observed ones
	// (compare-and-swap). Returns ErrRefConflict when a concurrent
	// provisioning got there first, ErrPlanNotFound if the plan is gone.
	UpdateExternalRefs(ctx context.Context, planID, observedProductRef, observedPriceRef, newProductRef, newPriceRef string) error
}
