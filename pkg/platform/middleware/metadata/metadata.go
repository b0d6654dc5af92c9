// Package metadata records who is calling: the client IP and a short summary
// of the user agent, for logs and audit events.
package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"opdclaims/pkg/requestcontext"
)

// ClientMetadata extracts client IP address and User-Agent from the request
// and adds them to the context. Apply it early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), userAgent, Summarize(userAgent))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Summarize renders a user agent as "Chrome 120.0 on macOS". Bots and
// command line clients keep their product name.
func Summarize(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return ""
	}
	ua := useragent.New(userAgent)
	name, version := ua.Browser()
	if name == "" {
		return userAgent
	}
	client := name
	if version != "" {
		client += " " + version
	}
	if ua.Bot() {
		return client + " (bot)"
	}
	if os := ua.OSInfo().Name; os != "" {
		client += " on " + os
	}
	if ua.Mobile() {
		client += " (mobile)"
	}
	return client
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port", or "[::1]:port" for IPv6
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}

	return "unknown"
}
