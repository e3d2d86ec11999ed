package billing

import "context"

// User is the slice of the user directory the billing core needs: an
// identifier for correlation metadata and an email for checkout pre-fill.
type User struct {
	ID    string
	Email string
}

// UserDirectory is the consumed interface over the application's user store.
// Authentication and session issuance live with the collaborator; by the
// time the billing core runs, the caller's user ID is already established.
type UserDirectory interface {
	// FindUserByID returns ErrUserNotFound if the user does not exist.
	FindUserByID(ctx context.Context, id string) (*User, error)
}

// StaticDirectory is a fixed in-memory UserDirectory keyed by user ID. Used
// in tests and development setups without a real user store.
type StaticDirectory map[string]User

func (d StaticDirectory) FindUserByID(ctx context.Context, id string) (*User, error) {
	u, ok := d[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}
