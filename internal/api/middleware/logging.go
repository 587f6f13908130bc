package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// statusRecorder wraps http.ResponseWriter to capture the status code and
// body size written by the handler so they can be logged after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(p []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(p)
	rec.bytes += n
	return n, err
}

// RequestLogger emits one structured zap line per completed HTTP request,
// including the correlation ID so batches can be traced end to end.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Int("bytes", rec.bytes),
				zap.Duration("latency", time.Since(start)),
				zap.String("correlation_id", GetCorrelationID(r.Context())),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}
