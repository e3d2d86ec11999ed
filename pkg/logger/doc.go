// Package logger builds slog loggers for the storefront services.
//
// New assembles a JSON or text handler from options or an env-derived
// Config and wraps it in a ContextHandler, which injects request-scoped
// attributes extracted from the context of each log call. The attr helpers
// keep key names consistent across packages.
package logger
