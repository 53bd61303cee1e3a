package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// NewRequestLogger creates a middleware that logs each incoming request
// and how long it took to handle.
func NewRequestLogger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqMeta, ok := ReqMetadataFrom(r.Context())
			var ip string
			if ok {
				ip = reqMeta.IP
			}

			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info("HTTP request handled",
				slog.String("method", r.Method),
				slog.String("uri", r.RequestURI),
				slog.String("ip", ip),
				slog.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
