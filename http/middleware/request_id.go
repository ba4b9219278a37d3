package middleware

import (
	"net/http"

	"github.com/alextanhongpin/shopobs/http/contextkey"
	"github.com/rs/xid"
)

const RequestIDHeader = "X-Request-ID"

var RequestIDContext contextkey.ContextKey[string] = "request_id_ctx"

// RequestID reuses the incoming X-Request-ID or generates a new one, and
// echoes it in the response.
func RequestID(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = xid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := RequestIDContext.WithValue(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}

	return http.HandlerFunc(fn)
}
