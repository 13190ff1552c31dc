package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims are the claims carried by a session token.
type SessionClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// SessionManager issues and validates the signed session tokens set as a
// cookie after a successful login.
type SessionManager struct {
	secret         string
	sessionExpiry  time.Duration
	rememberExpiry time.Duration
}

// NewSessionManager creates a SessionManager. sessionExpiry applies to plain
// logins; rememberExpiry applies when the user ticked "remember me".
func NewSessionManager(secret string, sessionExpiry, rememberExpiry time.Duration) *SessionManager {
	return &SessionManager{
		secret:         secret,
		sessionExpiry:  sessionExpiry,
		rememberExpiry: rememberExpiry,
	}
}

// Lifetime returns the session duration for the given remember-me choice.
func (sm *SessionManager) Lifetime(remember bool) time.Duration {
	if remember {
		return sm.rememberExpiry
	}
	return sm.sessionExpiry
}

// Generate creates a signed session token for the user.
func (sm *SessionManager) Generate(userID, email string, remember bool) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(sm.Lifetime(remember))),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(sm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, nil
}

// Validate verifies a session token and returns its claims.
func (sm *SessionManager) Validate(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(sm.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}

	return claims, nil
}
