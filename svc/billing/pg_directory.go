package billing

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitalsupply/storefront/pkg/pg"
)

// PGDirectory reads users from the storefront database. It suits deployments
// where the auth service shares the database; deployments with a separate
// user store supply their own UserDirectory.
type PGDirectory struct {
	pool *pgxpool.Pool
}

func NewPGDirectory(pool *pgxpool.Pool) *PGDirectory {
	return &PGDirectory{pool: pool}
}

func (d *PGDirectory) FindUserByID(ctx context.Context, id string) (*User, error) {
	const q = `SELECT id, email FROM users WHERE id = $1`

	var u User
	if err := d.pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.Email); err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
