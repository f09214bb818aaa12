// Package utils contains small helper functions used across the project.
//
// These are usually generic helpers that don't belong to a specific domain.
package utils

import (
	"net/http"
	"strings"
)

// Redacted replaces the value of credential-bearing headers.
const Redacted = "[REDACTED]"

var sensitiveHeaders = map[string]bool{
	"Authorization":       true,
	"Cookie":              true,
	"Proxy-Authorization": true,
}

// EchoHeaders flattens h into a name -> value map for a response body.
// Repeated headers are joined with ", " and credentials are redacted.
func EchoHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		canonical := http.CanonicalHeaderKey(name)
		if sensitiveHeaders[canonical] {
			out[canonical] = Redacted
			continue
		}
		out[canonical] = strings.Join(values, ", ")
	}
	return out
}
