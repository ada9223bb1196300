package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/domainscout/domainscout/internal/observability"
)

// statusWriter captures the response status code for logging.
type statusWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.statusCode == 0 {
		w.statusCode = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// RequestLogger logs one structured line per completed request with
// the request ID for correlation.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w}

		next.ServeHTTP(wrapped, r)

		if observability.ServerLogger == nil {
			return
		}

		status := wrapped.statusCode
		if status == 0 {
			status = http.StatusOK
		}

		observability.ServerLogger.Info("HTTP request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.Int64("response_size", wrapped.written),
			zap.String("requestID", GetRequestID(r.Context())),
		)
	})
}
