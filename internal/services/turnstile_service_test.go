package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loginguard/internal/models"
)

func TestTurnstile_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "secret-key", r.PostForm.Get("secret"))
		assert.Equal(t, "challenge-token", r.PostForm.Get("response"))
		assert.Equal(t, "203.0.113.5", r.PostForm.Get("remoteip"))
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	svc := NewTurnstileService("secret-key", server.URL, []string{"register"}, testLogger())
	err := svc.VerifyChallenge(context.Background(), "challenge-token", "203.0.113.5")
	assert.NoError(t, err)
}

func TestTurnstile_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	defer server.Close()

	svc := NewTurnstileService("secret-key", server.URL, []string{"register"}, testLogger())
	err := svc.VerifyChallenge(context.Background(), "bad-token", "")
	assert.ErrorIs(t, err, models.ErrSecurityCheckFailed)
}

func TestTurnstile_MissingToken(t *testing.T) {
	svc := NewTurnstileService("secret-key", "http://unused.invalid", []string{"register"}, testLogger())
	err := svc.VerifyChallenge(context.Background(), "", "")
	assert.ErrorIs(t, err, models.ErrSecurityCheckFailed)
}

func TestTurnstile_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := NewTurnstileService("secret-key", server.URL, []string{"register"}, testLogger())
	err := svc.VerifyChallenge(context.Background(), "challenge-token", "")
	assert.ErrorIs(t, err, models.ErrUpstreamService)
}

func TestTurnstile_AppliesTo(t *testing.T) {
	svc := NewTurnstileService("secret-key", "", []string{"register", "forgot_password"}, testLogger())

	assert.True(t, svc.AppliesTo("register"))
	assert.True(t, svc.AppliesTo("forgot_password"))
	assert.False(t, svc.AppliesTo("login"))
}
