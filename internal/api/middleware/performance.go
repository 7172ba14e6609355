package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/opsguard/internal/domain/performance"
	"github.com/pratik-mahalle/opsguard/internal/pkg/utils"
)

// timedWriter stamps X-Response-Time when the header is written
type timedWriter struct {
	http.ResponseWriter
	start       time.Time
	statusCode  int
	wroteHeader bool
}

func (w *timedWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.statusCode = code
		w.Header().Set("X-Response-Time", fmt.Sprintf("%.3fs", time.Since(w.start).Seconds()))
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *timedWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Performance feeds every request into the performance monitor
func Performance(monitor performance.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			timer := monitor.RequestStarted(r.Context(), performance.RequestInfo{
				Endpoint:  r.URL.Path,
				Method:    r.Method,
				URL:       r.URL.String(),
				UserAgent: r.UserAgent(),
				IP:        utils.ClientIP(r),
			})

			tw := &timedWriter{ResponseWriter: w, start: timer.Start, statusCode: http.StatusOK}
			next.ServeHTTP(tw, r)

			// route patterns keep per-endpoint stats bounded
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					timer.Info.Endpoint = pattern
				}
			}
			monitor.RequestFinished(r.Context(), timer, tw.statusCode)
		})
	}
}
