package utils

import (
	"net/http"
	"strings"
)

// ClientIP returns the originating client address. Only the first
// X-Forwarded-For hop is kept; later hops are proxies.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return r.RemoteAddr
}
