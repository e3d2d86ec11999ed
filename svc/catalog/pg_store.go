package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitalsupply/storefront/pkg/pg"
)

// PGStore is the PostgreSQL Store implementation.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore returns a plan store backed by the given connection pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Get(ctx context.Context, id string) (*Plan, error) {
	const q = `
		SELECT id, name, description, price_minor_units, billing_interval,
		       external_product_ref, external_price_ref, active
		FROM plans WHERE id = $1`

	var p Plan
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.PriceMinorUnits, &p.Interval,
		&p.ExternalProductRef, &p.ExternalPriceRef, &p.Active,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *PGStore) List(ctx context.Context) ([]Plan, error) {
	const q = `
		SELECT id, name, description, price_minor_units, billing_interval,
		       external_product_ref, external_price_ref, active
		FROM plans ORDER BY id`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		var p Plan
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.PriceMinorUnits, &p.Interval,
			&p.ExternalProductRef, &p.ExternalPriceRef, &p.Active,
		); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (s *PGStore) Create(ctx context.Context, plan Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	const q = `
		INSERT INTO plans (id, name, description, price_minor_units, billing_interval,
		                   external_product_ref, external_price_ref, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.pool.Exec(ctx, q,
		plan.ID, plan.Name, plan.Description, plan.PriceMinorUnits, plan.Interval,
		plan.ExternalProductRef, plan.ExternalPriceRef, plan.Active,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrPlanAlreadyExists
		}
		return err
	}
	return nil
}

// UpdateExternalRefs performs the compare-and-swap in a single statement; the
// WHERE clause carries the observed refs, so a lost race affects zero rows.
func (s *PGStore) UpdateExternalRefs(ctx context.Context, planID, observedProductRef, observedPriceRef, newProductRef, newPriceRef string) error {
	const q = `
		UPDATE plans
		SET external_product_ref = $4, external_price_ref = $5
		WHERE id = $1 AND external_product_ref = $2 AND external_price_ref = $3`

	tag, err := s.pool.Exec(ctx, q, planID, observedProductRef, observedPriceRef, newProductRef, newPriceRef)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a lost CAS race from a deleted plan.
		if _, getErr := s.Get(ctx, planID); getErr != nil {
			if errors.Is(getErr, ErrPlanNotFound) {
				return ErrPlanNotFound
			}
			return getErr
		}
		return ErrRefConflict
	}
	return nil
}
