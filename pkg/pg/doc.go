// Package pg provides PostgreSQL connectivity for the storefront: a retrying
// pgxpool connector, goose schema migrations, a readiness healthcheck, and
// error classifiers used by the repository implementations.
//
// The billing core depends on two database behaviors this package surfaces:
// unique-constraint violation detection (IsDuplicateKeyError) for the webhook
// idempotency ledger, and pgx.ErrNoRows mapping (IsNotFoundError) for
// repository "not found" results.
package pg
