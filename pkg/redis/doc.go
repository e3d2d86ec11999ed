// Package redis wraps the go-redis client with a retrying connector and a
// readiness healthcheck. The storefront uses Redis as an alternative backend
// for the webhook idempotency ledger (SET NX as the uniqueness-constrained
// insert) when the deployment runs without PostgreSQL.
package redis
