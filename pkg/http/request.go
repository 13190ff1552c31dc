package http

import (
	"net"
	"net/http"
	"strings"
)

// SentinelIP is returned when no candidate address parses as a valid IP.
const SentinelIP = "0.0.0.0"

// forwardingHeaders is the fixed priority order in which proxy headers are
// consulted. The first syntactically valid candidate wins. This trusts the
// earliest plausible forwarded address, which a client can spoof unless the
// fronting proxy strips or overwrites these headers; that is why the headers
// are only consulted when the direct peer is on the trusted-proxy list.
var forwardingHeaders = []string{
	"Client-IP",
	"X-Forwarded-For",
	"X-Forwarded",
	"X-Cluster-Client-IP",
	"Forwarded-For",
	"Forwarded",
}

// IPConfig holds configuration for IP extraction and validation
type IPConfig struct {
	TrustedProxies []string // CIDR ranges of trusted proxies
}

// ExtractClientIP resolves the client address for rate limiting.
//
// When the direct peer is a trusted proxy, the forwarding headers are
// checked in priority order; a comma-separated list yields its first entry;
// candidates must parse as an IP. Otherwise (or when nothing validates) the
// connection's remote address is used, and if that too fails to parse, the
// sentinel 0.0.0.0 is returned so callers always get a usable key.
func ExtractClientIP(r *http.Request, config *IPConfig) string {
	remoteIP := getRemoteAddr(r)

	if config != nil && isTrustedProxy(remoteIP, config.TrustedProxies) {
		for _, header := range forwardingHeaders {
			candidate := r.Header.Get(header)
			if candidate == "" {
				continue
			}
			if idx := strings.Index(candidate, ","); idx >= 0 {
				candidate = candidate[:idx]
			}
			candidate = strings.TrimSpace(candidate)
			if isValidIP(candidate) {
				return candidate
			}
		}
	}

	if isValidIP(remoteIP) {
		return remoteIP
	}
	return SentinelIP
}

// getRemoteAddr extracts the IP address from RemoteAddr (removing port if present)
func getRemoteAddr(r *http.Request) string {
	if r.RemoteAddr != "" {
		if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return ip
		}
		return r.RemoteAddr
	}
	return ""
}

// isTrustedProxy checks if an IP address is within any of the trusted proxy CIDR ranges
func isTrustedProxy(ip string, trustedProxies []string) bool {
	if len(trustedProxies) == 0 {
		return false
	}

	peer := net.ParseIP(ip)
	if peer == nil {
		return false
	}

	for _, cidr := range trustedProxies {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			continue // Skip invalid CIDR ranges
		}
		if ipNet.Contains(peer) {
			return true
		}
	}

	return false
}

// isValidIP checks if a string is a valid IPv4 or IPv6 address
func isValidIP(ip string) bool {
	return net.ParseIP(ip) != nil
}
