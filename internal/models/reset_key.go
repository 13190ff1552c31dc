package models

import (
	"time"
)

// PasswordResetKey represents a single-use password reset capability.
// Only the SHA-256 hash of the key material is ever persisted.
type PasswordResetKey struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	KeyHash   string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsExpired checks if the key has expired
func (k *PasswordResetKey) IsExpired() bool {
	return time.Now().After(k.ExpiresAt)
}

// IsUsed checks if the key has already been redeemed
func (k *PasswordResetKey) IsUsed() bool {
	return k.UsedAt != nil
}

// IsValid checks if the key is still redeemable (not expired and not used)
func (k *PasswordResetKey) IsValid() bool {
	return !k.IsExpired() && !k.IsUsed()
}
