package api

import (
	"net"
	"net/http"
	"strings"
)

const fallbackIP = "127.0.0.1"

// ClientIP returns the end-user address forwarded to the settlement provider. Proxy
// headers win over the socket peer; for lists only the first hop counts.
func ClientIP(r *http.Request) string {
	for _, h := range []string{"X-Vercel-Forwarded-For", "X-Forwarded-For"} {
		if v := firstHop(r.Header.Get(h)); v != "" {
			return v
		}
	}
	for _, h := range []string{"X-Real-Ip", "Cf-Connecting-Ip"} {
		if v := strings.TrimSpace(r.Header.Get(h)); v != "" {
			return v
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return fallbackIP
}

func firstHop(v string) string {
	if v == "" {
		return ""
	}
	first, _, _ := strings.Cut(v, ",")
	return strings.TrimSpace(first)
}
