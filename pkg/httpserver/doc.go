// Package httpserver provides a thin wrapper around net/http with graceful
// shutdown, signal handling, and probe handlers. The storefront mounts the
// billing router on it in cmd/storefront.
package httpserver
