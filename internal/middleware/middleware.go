// Package middleware holds the Echo middleware of the service: SSO token
// extraction, request ids, the request-scoped logger, New Relic tracing,
// CORS and secure headers, per-IP rate limiting, panic recovery and the
// global error handler.
package middleware
