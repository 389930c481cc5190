package internal

import (
	"net"
	"net/http"
	"strings"
)

// TrustedProxies decides whether forwarding headers of a peer can be used.
type TrustedProxies struct {
	networks []*net.IPNet
}

func NewTrustedProxies(cidrs []string) (*TrustedProxies, error) {
	networks := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		if !strings.Contains(cidr, "/") {
			if ip := net.ParseIP(cidr); ip != nil && ip.To4() != nil {
				cidr += "/32"
			} else {
				cidr += "/128"
			}
		}
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, err
		}
		networks = append(networks, network)
	}
	return &TrustedProxies{networks: networks}, nil
}

func (t *TrustedProxies) isTrusted(ip net.IP) bool {
	for _, network := range t.networks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP returns the customer address sent to the gateway as vnp_IpAddr.
// X-Forwarded-For and X-Real-IP are only read when the direct peer is a
// trusted proxy.
func (t *TrustedProxies) ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer := net.ParseIP(host)
	if peer == nil || !t.isTrusted(peer) {
		return host
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// the right-most address not belonging to a trusted proxy is the client
		parts := strings.Split(forwarded, ",")
		for i := len(parts) - 1; i >= 0; i-- {
			ip := net.ParseIP(strings.TrimSpace(parts[i]))
			if ip == nil {
				break
			}
			if !t.isTrusted(ip) {
				return ip.String()
			}
		}
	}
	if realIP := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); realIP != nil {
		return realIP.String()
	}
	return host
}
