package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CORS allows the configured comma-separated origins to call the admin API
func CORS(allowedOrigin string) func(http.Handler) http.Handler {
	var origins []string
	for _, o := range strings.Split(allowedOrigin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, "X-Response-Time"},
		MaxAge:         300,
	})
}
