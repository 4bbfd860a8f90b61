// Package httpapi exposes an iterator over HTTP: a streaming NDJSON export
// and a count endpoint, both filtered from URL query parameters.
package httpapi
