// Package fetch wraps net/http with one helper per HTTP method.
//
// Each helper builds a Request and hands it to Client.Do, which returns the
// *http.Response unmodified. The caller owns the response and must close
// its body. Non-string bodies are JSON-encoded; see Request.
//
// The default transport is instrumented with otelhttp, and every call runs
// in its own span. A UUIDv7 request id ties the span to the log records.
package fetch
