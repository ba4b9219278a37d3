package middleware

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Trace starts a server span for each request and extracts the incoming
// trace context. Spans are named "METHOD route", where route resolves the
// matched pattern; unmatched requests fall back to the method alone.
func Trace(route func(*http.Request) string, opts ...otelhttp.Option) Middleware {
	return func(next http.Handler) http.Handler {
		opts := append([]otelhttp.Option{
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return SpanName(r.Method, route(r))
			}),
		}, opts...)

		return otelhttp.NewHandler(next, "http.server", opts...)
	}
}

// SpanName formats the span name from a ServeMux pattern, which may already
// contain the method. The exact-match marker {$} is dropped.
func SpanName(method, pattern string) string {
	pattern = strings.TrimSuffix(pattern, "{$}")

	switch {
	case pattern == "":
		return method
	case pattern[0] == '/':
		return method + " " + pattern
	default:
		return pattern
	}
}
