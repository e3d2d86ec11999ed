// Package config loads typed configuration structs from environment
// variables, with optional .env bootstrap for local development.
//
// Each component of the storefront declares its own Config struct with `env`
// tags and loads it at startup:
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
// Backend selection (memory vs postgres storage, the idempotency-ledger
// backend) is configuration read exactly once at process start; nothing in
// the billing core branches on environment per call.
package config
