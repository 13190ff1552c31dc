package http

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIPDirectConnection(t *testing.T) {
	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "203.0.113.5:54321"

	ip := ExtractClientIP(r, nil)
	assert.Equal(t, "203.0.113.5", ip)
}

func TestExtractClientIPIgnoresHeadersFromUntrustedPeer(t *testing.T) {
	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "203.0.113.5:54321"
	r.Header.Set("X-Forwarded-For", "198.51.100.7")

	// No trusted proxy config: the forwarded header must not win.
	ip := ExtractClientIP(r, &IPConfig{})
	assert.Equal(t, "203.0.113.5", ip)
}

func TestExtractClientIPHonorsHeadersFromTrustedProxy(t *testing.T) {
	cfg := &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}

	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "10.1.2.3:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.7, 10.1.2.3")

	ip := ExtractClientIP(r, cfg)
	assert.Equal(t, "198.51.100.7", ip)
}

func TestExtractClientIPHeaderPriorityOrder(t *testing.T) {
	cfg := &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}

	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "10.1.2.3:443"
	r.Header.Set("Client-IP", "192.0.2.10")
	r.Header.Set("X-Forwarded-For", "198.51.100.7")

	// Client-IP is consulted before X-Forwarded-For.
	ip := ExtractClientIP(r, cfg)
	assert.Equal(t, "192.0.2.10", ip)
}

func TestExtractClientIPSkipsInvalidCandidates(t *testing.T) {
	cfg := &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}

	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "10.1.2.3:443"
	r.Header.Set("Client-IP", "not-an-ip")
	r.Header.Set("X-Forwarded-For", "198.51.100.7")

	ip := ExtractClientIP(r, cfg)
	assert.Equal(t, "198.51.100.7", ip)
}

func TestExtractClientIPSentinelFallback(t *testing.T) {
	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "garbage"

	ip := ExtractClientIP(r, nil)
	assert.Equal(t, SentinelIP, ip)
}

func TestExtractClientIPIPv6(t *testing.T) {
	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "[2001:db8::1]:54321"

	ip := ExtractClientIP(r, nil)
	assert.Equal(t, "2001:db8::1", ip)
}
