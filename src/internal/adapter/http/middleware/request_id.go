package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/api-sage/pix-ledger-service/src/internal/logger"
)

const RequestIDHeader = "X-Request-Id"

// RequestID tags every request with an id so log lines from one request can
// be correlated. An id supplied by the caller is kept, otherwise one is
// generated.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			w.Header().Set(RequestIDHeader, requestID)
			logger.Info("request id middleware", logger.Fields{
				"method":    r.Method,
				"path":      r.URL.Path,
				"requestId": requestID,
			})
			next.ServeHTTP(w, r)
		})
	}
}
