package middleware

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/alextanhongpin/shopobs/http/httputil"
)

// LogRequest writes one access log line per request. Paths in skip, such as
// the scrape endpoint, are not logged.
func LogRequest(logger *slog.Logger, skip ...string) Middleware {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(skip, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := httputil.NewResponseWriterRecorder(w)
			next.ServeHTTP(rw, r)

			ctx := r.Context()
			reqID, _ := RequestIDContext.Value(ctx)
			code := rw.StatusCode()

			level := slog.LevelInfo
			switch {
			case code >= http.StatusInternalServerError:
				level = slog.LevelError
			case code >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			logger.LogAttrs(ctx, level, "request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.EscapedPath()),
				slog.Int("status", code),
				slog.Int("size", rw.Size()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", reqID),
				slog.String("user_agent", r.UserAgent()),
			)
		}

		return http.HandlerFunc(fn)
	}
}
