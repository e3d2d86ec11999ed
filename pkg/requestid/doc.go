// Package requestid attaches a correlation ID to every HTTP request.
//
// Middleware reuses a valid client-supplied X-Request-ID or generates a
// UUID, stores it in the request context, and echoes it in the response.
// LoggerExtractor plugs the ID into the logger package's context extraction
// so webhook deliveries and checkout calls can be traced across log records.
package requestid
