package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitalsupply/storefront/pkg/pg"
)

// PGStore is the PostgreSQL Store implementation. The upsert leans on the
// unique index over external_ref; absent fields arrive as NULL and COALESCE
// preserves the stored value, giving last-write-wins only on the fields a
// given event actually carries.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore returns a subscription store backed by the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const subscriptionColumns = `
	id, user_id, external_ref, plan_id, status,
	current_period_start, current_period_end, cancel_state, created_at, updated_at`

func (s *PGStore) UpsertByExternalRef(ctx context.Context, externalRef string, fields Fields) (*Subscription, error) {
	if externalRef == "" {
		return nil, ErrMissingExternalRef
	}

	const q = `
		INSERT INTO subscriptions (
			id, user_id, external_ref, plan_id, status,
			current_period_start, current_period_end, cancel_state, created_at, updated_at
		) VALUES (
			$1, COALESCE($3, ''), $2, COALESCE($4, ''), COALESCE($5, 'incomplete'),
			COALESCE($6, 'epoch'::timestamptz), COALESCE($7, 'epoch'::timestamptz),
			COALESCE($8, 'none'), now(), now()
		)
		ON CONFLICT (external_ref) DO UPDATE SET
			user_id              = COALESCE($3, subscriptions.user_id),
			plan_id              = COALESCE($4, subscriptions.plan_id),
			status               = COALESCE($5, subscriptions.status),
			current_period_start = COALESCE($6, subscriptions.current_period_start),
			current_period_end   = COALESCE($7, subscriptions.current_period_end),
			cancel_state         = COALESCE($8, subscriptions.cancel_state),
			updated_at           = now()
		RETURNING ` + subscriptionColumns

	row := s.pool.QueryRow(ctx, q,
		uuid.New(), externalRef,
		fields.UserID, fields.PlanID, fields.Status,
		fields.CurrentPeriodStart, fields.CurrentPeriodEnd, fields.CancelState,
	)
	return scanSubscription(row)
}

func (s *PGStore) FindByExternalRef(ctx context.Context, externalRef string) (*Subscription, error) {
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE external_ref = $1`

	sub, err := scanSubscription(s.pool.QueryRow(ctx, q, externalRef))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (s *PGStore) FindActiveByUserID(ctx context.Context, userID string) ([]Subscription, error) {
	const q = `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND status IN ('active', 'trialing')
		ORDER BY created_at DESC`
	return s.queryMany(ctx, q, userID)
}

func (s *PGStore) FindByUserID(ctx context.Context, userID string) ([]Subscription, error) {
	const q = `SELECT ` + subscriptionColumns + `
		FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC`
	return s.queryMany(ctx, q, userID)
}

func (s *PGStore) queryMany(ctx context.Context, q string, args ...any) ([]Subscription, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sub)
	}
	return out, rows.Err()
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var sub Subscription
	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.ExternalRef, &sub.PlanID, &sub.Status,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.CancelState,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// PGOrderStore is the PostgreSQL OrderStore implementation.
type PGOrderStore struct {
	pool *pgxpool.Pool
}

// NewPGOrderStore returns an order store backed by the given pool.
func NewPGOrderStore(pool *pgxpool.Pool) *PGOrderStore {
	return &PGOrderStore{pool: pool}
}

// CreateFromCheckout writes the order header and its items in one
// transaction. A duplicate external_payment_ref means a replayed webhook
// delivery; the transaction rolls back and the call reports success.
func (s *PGOrderStore) CreateFromCheckout(ctx context.Context, order Order) error {
	if order.ExternalPaymentRef == "" {
		return ErrMissingExternalRef
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertOrder = `
		INSERT INTO orders (id, user_id, external_payment_ref, total_minor_units, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = tx.Exec(ctx, insertOrder,
		order.ID, order.UserID, order.ExternalPaymentRef,
		order.TotalMinorUnits, order.Currency, order.Status, order.CreatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return nil
		}
		return err
	}

	const insertItem = `
		INSERT INTO order_items (order_id, product_ref, quantity, price_minor_units)
		VALUES ($1, $2, $3, $4)`

	for _, item := range order.Items {
		if _, err := tx.Exec(ctx, insertItem, order.ID, item.ProductRef, item.Quantity, item.PriceMinorUnits); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *PGOrderStore) FindByUserID(ctx context.Context, userID string) ([]Order, error) {
	const q = `
		SELECT id, user_id, external_payment_ref, total_minor_units, currency, status, created_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.ExternalPaymentRef, &o.TotalMinorUnits, &o.Currency, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const itemsQ = `
		SELECT order_id, product_ref, quantity, price_minor_units
		FROM order_items WHERE order_id = ANY($1)`

	ids := make([]uuid.UUID, len(out))
	index := make(map[uuid.UUID]int, len(out))
	for i, o := range out {
		ids[i] = o.ID
		index[o.ID] = i
	}
	if len(ids) == 0 {
		return out, nil
	}

	itemRows, err := s.pool.Query(ctx, itemsQ, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var orderID uuid.UUID
		var item OrderItem
		if err := itemRows.Scan(&orderID, &item.ProductRef, &item.Quantity, &item.PriceMinorUnits); err != nil {
			return nil, err
		}
		if i, ok := index[orderID]; ok {
			out[i].Items = append(out[i].Items, item)
		}
	}
	return out, itemRows.Err()
}
