package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Header carrying the caller-supplied trace identifier.
const CorrelationHeader = "X-Correlation-ID"

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// CorrelationID propagates the caller's correlation ID, minting a fresh UUID
// when none was sent. The ID lands on the request context and is echoed in
// the response so a sync adapter can tie its batch to our log lines.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(CorrelationHeader, id)
		next.ServeHTTP(w, r.WithContext(
			context.WithValue(r.Context(), correlationIDKey, id),
		))
	})
}

// GetCorrelationID retrieves the correlation ID stored by the middleware.
// Returns an empty string if the middleware was not applied.
func GetCorrelationID(ctx context.Context) string {
	v, _ := ctx.Value(correlationIDKey).(string)
	return v
}
