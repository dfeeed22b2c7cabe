package httpx

import (
	"net"
	"net/http"
	"strings"
)

// NormalizeIP strips an IPv4-mapped IPv6 prefix so the same client always
// yields the same address string.
func NormalizeIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if rest, ok := strings.CutPrefix(strings.ToLower(ip), "::ffff:"); ok && net.ParseIP(rest).To4() != nil {
		return rest
	}
	return ip
}

// ClientIP resolves the address of the calling device. Forwarded headers are
// only honoured when trustProxy is set.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return NormalizeIP(ip)
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return NormalizeIP(xri)
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return NormalizeIP(r.RemoteAddr)
	}
	return NormalizeIP(host)
}
