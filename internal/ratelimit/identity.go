package ratelimit

import (
	"net/http"
	"strings"
)

// UnknownClient is the sentinel identity used when no proxy metadata is
// present. Distinct clients without forwarding headers collapse onto this
// one key and share a window; that approximation is intentional.
const UnknownClient = "unknown"

// ClientKey derives a best-effort client identity from forwarded-address
// metadata: the first entry of X-Forwarded-For, then X-Real-IP, then
// UnknownClient. It always returns a non-empty string.
func ClientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	return UnknownClient
}
