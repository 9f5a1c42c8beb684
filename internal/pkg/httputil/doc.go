// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Handlers use these helpers instead of writing raw http.ResponseWriter
// calls, so every import endpoint returns the same JSON envelope and
// request bodies are decoded and validated the same way.
package httputil
