package middleware

import (
	"net/http"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/domain/syslog"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/pkg/utils"
)

// responseWriter captures the status code and body size
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Logger logs every request; server errors also go to the durable system log when logs is set
func Logger(log *logger.Logger, logs syslog.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			requestID := GetRequestID(r)
			entry := log.WithFields(map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"query":       r.URL.RawQuery,
				"status":      wrapped.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
				"bytes":       wrapped.written,
				"ip":          utils.ClientIP(r),
				"request_id":  requestID,
			})

			if wrapped.statusCode < http.StatusInternalServerError {
				entry.Info("HTTP request")
				return
			}

			entry.Warn("HTTP request failed")
			if logs != nil {
				logs.RecordEvent(r.Context(), &syslog.Entry{
					Level:      syslog.LevelError,
					LoggerName: "http",
					Module:     r.URL.Path,
					Message:    r.Method + " " + r.URL.Path + " returned " + http.StatusText(wrapped.statusCode),
					RequestID:  requestID,
					IPAddress:  utils.ClientIP(r),
				})
			}
		})
	}
}
