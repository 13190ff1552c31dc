package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// NonceService issues purpose-bound, time-windowed integrity tokens. A nonce
// is an HMAC over the action name and the current window tick; it proves the
// server issued the value recently for this specific purpose, nothing more.
type NonceService struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewNonceService creates a NonceService. Nonces verify for up to lifetime
// (the window is split in two ticks; the current and the previous tick are
// both accepted).
func NewNonceService(secret string, lifetime time.Duration) *NonceService {
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	return &NonceService{
		secret:   []byte(secret),
		lifetime: lifetime,
		now:      time.Now,
	}
}

// tick returns the rolling half-lifetime window index for t.
func (s *NonceService) tick(t time.Time) int64 {
	half := int64(s.lifetime / 2 / time.Second)
	if half <= 0 {
		half = 1
	}
	return t.Unix() / half
}

func (s *NonceService) compute(tick int64, action string) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%d|%s", tick, action)
	return hex.EncodeToString(mac.Sum(nil))[:16]
}

// Create returns a nonce bound to action and the current time window.
func (s *NonceService) Create(action string) string {
	return s.compute(s.tick(s.now()), action)
}

// Verify reports whether nonce was issued for action within the lifetime
// window. Both the current and the previous tick are accepted, so a nonce
// remains valid for at least half a lifetime and at most a full one.
func (s *NonceService) Verify(nonce, action string) bool {
	if nonce == "" {
		return false
	}
	tick := s.tick(s.now())
	for _, t := range []int64{tick, tick - 1} {
		if hmac.Equal([]byte(nonce), []byte(s.compute(t, action))) {
			return true
		}
	}
	return false
}
