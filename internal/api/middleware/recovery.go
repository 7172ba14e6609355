package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/pratik-mahalle/opsguard/internal/domain/alert"
	"github.com/pratik-mahalle/opsguard/internal/pkg/errors"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/pkg/utils"
)

// Recovery turns handler panics into 500 responses and raises an error alert when alerts is set
func Recovery(log *logger.Logger, alerts alert.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				panicErr := fmt.Errorf("panic: %v", rec)
				log.WithFields(map[string]interface{}{
					"stack":      string(debug.Stack()),
					"method":     r.Method,
					"path":       r.URL.Path,
					"request_id": GetRequestID(r),
				}).ErrorWithErr(panicErr, "Panic recovered")

				if alerts != nil {
					alerts.SendErrorAlert(r.Context(), panicErr, map[string]interface{}{
						"method":     r.Method,
						"url":        r.URL.String(),
						"ip":         utils.ClientIP(r),
						"request_id": GetRequestID(r),
					})
				}

				utils.WriteError(w, errors.Internal("Internal server error", panicErr))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
