package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the IP of the client that sent r.
//
// X-Forwarded-For is only honoured when the direct peer is trusted; the
// result is then the rightmost forwarded address that is not itself a
// trusted proxy.
func ClientIP(r *http.Request, trusted func(ip string) bool) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if trusted == nil || !trusted(host) {
		return host
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if net.ParseIP(hop) == nil {
			continue
		}
		if !trusted(hop) {
			return hop
		}
		host = hop
	}
	return host
}
