package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"loginguard/internal/models"
)

// ActionEmailConfirmation is the nonce purpose for registration confirmation
// tokens.
const ActionEmailConfirmation = "email-confirmation"

// secretLength is the length of the random secret embedded in a confirmation
// token. 32 alphanumeric characters ≈ 190 bits of entropy.
const secretLength = 32

const secretAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// confirmationPayload is the serialized form of a confirmation token.
type confirmationPayload struct {
	Secret   string `json:"secret"`
	IssuedAt int64  `json:"issued_at"`
	Nonce    string `json:"nonce"`
}

// ConfirmationToken is the decoded, validated form handed back to callers.
type ConfirmationToken struct {
	Secret   string
	IssuedAt time.Time
}

// ConfirmationManager issues and validates the self-contained tokens that
// travel over email during registration. A token is a capability: possession
// plus structural and temporal validity is the whole authorization check.
type ConfirmationManager struct {
	nonces *NonceService
	maxAge time.Duration
	now    func() time.Time
}

// NewConfirmationManager creates a ConfirmationManager. Tokens expire maxAge
// after issuance (24h by default).
func NewConfirmationManager(nonces *NonceService, maxAge time.Duration) *ConfirmationManager {
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &ConfirmationManager{
		nonces: nonces,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Generate produces an opaque, URL-safe confirmation token embedding a fresh
// random secret, the issuance timestamp and a purpose-bound nonce. The secret
// is returned separately so the caller can index pending state by it.
func (m *ConfirmationManager) Generate() (encoded string, secret string, err error) {
	secret, err = randomSecret(secretLength)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate token secret: %w", err)
	}

	payload := confirmationPayload{
		Secret:   secret,
		IssuedAt: m.now().Unix(),
		Nonce:    m.nonces.Create(ActionEmailConfirmation),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode token: %w", err)
	}

	return base64.URLEncoding.EncodeToString(raw), secret, nil
}

// Validate decodes and checks an encoded token. Structural damage and nonce
// failures return ErrTokenInvalid; an over-age token returns ErrTokenExpired.
// Corrupted input never panics. There are no partial-validity states.
func (m *ConfirmationManager) Validate(encoded string) (*ConfirmationToken, error) {
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, models.ErrTokenInvalid
	}

	var payload confirmationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, models.ErrTokenInvalid
	}
	if payload.Secret == "" || payload.IssuedAt == 0 || payload.Nonce == "" {
		return nil, models.ErrTokenInvalid
	}

	// Age is checked before the nonce so an over-age token always surfaces
	// as expired, regardless of whether its nonce window has also lapsed.
	issuedAt := time.Unix(payload.IssuedAt, 0)
	if m.now().Sub(issuedAt) > m.maxAge {
		return nil, models.ErrTokenExpired
	}

	if !m.nonces.Verify(payload.Nonce, ActionEmailConfirmation) {
		return nil, models.ErrTokenInvalid
	}

	return &ConfirmationToken{
		Secret:   payload.Secret,
		IssuedAt: issuedAt,
	}, nil
}

// randomSecret returns n characters drawn uniformly from the secret alphabet
// using a cryptographically strong source.
func randomSecret(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(secretAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = secretAlphabet[idx.Int64()]
	}
	return string(out), nil
}
