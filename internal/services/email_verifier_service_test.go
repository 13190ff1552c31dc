package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loginguard/internal/models"
	"loginguard/internal/store"
)

func newVerifierFixture(t *testing.T, mode string, handler http.HandlerFunc) (*ReoonVerifier, *atomic.Int64) {
	t.Helper()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	v := NewReoonVerifier("test-key", mode, server.URL, 5*time.Second, time.Hour,
		store.New(client, "test"), testLogger())
	return v, &calls
}

func TestReoonVerifier_QuickMode(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		valid  bool
		reason string
	}{
		{"valid status", `{"status":"valid","mx_accepts_mail":true}`, true, ""},
		{"invalid status", `{"status":"invalid","mx_accepts_mail":true}`, false, models.MsgEmailUndeliverable},
		{"disposable address", `{"status":"disposable","mx_accepts_mail":true,"is_disposable":true}`, false, models.MsgEmailDisposable},
		{"role account", `{"status":"invalid","mx_accepts_mail":true,"is_role_account":true}`, false, models.MsgEmailRoleAccount},
		{"no mx", `{"status":"invalid"}`, false, models.MsgEmailNoMx},
		{"inbox full", `{"status":"invalid","mx_accepts_mail":true,"has_inbox_full":true}`, false, models.MsgEmailInboxFull},
		{"disabled mailbox", `{"status":"invalid","mx_accepts_mail":true,"is_disabled":true}`, false, models.MsgEmailDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newVerifierFixture(t, VerifierModeQuick, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "quick", r.URL.Query().Get("mode"))
				assert.Equal(t, "test-key", r.URL.Query().Get("key"))
				w.Write([]byte(tt.body))
			})

			verdict, err := v.VerifyEmail(context.Background(), "user@example.com")
			require.NoError(t, err)
			assert.Equal(t, tt.valid, verdict.Valid)
			assert.Equal(t, tt.reason, verdict.Reason)
		})
	}
}

func TestReoonVerifier_PowerMode(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		valid  bool
		reason string
	}{
		{"safe and deliverable", `{"status":"safe","is_safe_to_send":true,"is_deliverable":true,"overall_score":95,"mx_accepts_mail":true}`, true, ""},
		{"low score", `{"status":"safe","is_safe_to_send":true,"is_deliverable":true,"overall_score":60,"mx_accepts_mail":true}`, false, models.MsgEmailUndeliverable},
		{"not deliverable", `{"status":"safe","is_safe_to_send":true,"is_deliverable":false,"overall_score":95,"mx_accepts_mail":true}`, false, models.MsgEmailUndeliverable},
		{"risky status", `{"status":"risky","is_safe_to_send":true,"is_deliverable":true,"overall_score":95,"mx_accepts_mail":true}`, false, models.MsgEmailUnsafe},
		{"unsafe to send", `{"status":"safe","is_safe_to_send":false,"is_deliverable":true,"overall_score":95,"mx_accepts_mail":true}`, false, models.MsgEmailUnsafe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newVerifierFixture(t, VerifierModePower, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "power", r.URL.Query().Get("mode"))
				w.Write([]byte(tt.body))
			})

			verdict, err := v.VerifyEmail(context.Background(), "user@example.com")
			require.NoError(t, err)
			assert.Equal(t, tt.valid, verdict.Valid)
			assert.Equal(t, tt.reason, verdict.Reason)
		})
	}
}

func TestReoonVerifier_CachesVerdict(t *testing.T) {
	v, calls := newVerifierFixture(t, VerifierModeQuick, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"valid"}`))
	})
	ctx := context.Background()

	verdict, err := v.VerifyEmail(ctx, "user@example.com")
	require.NoError(t, err)
	require.True(t, verdict.Valid)

	// Case and whitespace variants hit the same cache entry
	verdict, err = v.VerifyEmail(ctx, "  USER@example.com ")
	require.NoError(t, err)
	assert.True(t, verdict.Valid)

	assert.Equal(t, int64(1), calls.Load())
}

func TestReoonVerifier_CachesRejectionReason(t *testing.T) {
	v, calls := newVerifierFixture(t, VerifierModeQuick, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"disposable","mx_accepts_mail":true,"is_disposable":true}`))
	})
	ctx := context.Background()

	verdict, err := v.VerifyEmail(ctx, "temp@example.com")
	require.NoError(t, err)
	require.False(t, verdict.Valid)

	verdict, err = v.VerifyEmail(ctx, "temp@example.com")
	require.NoError(t, err)
	assert.False(t, verdict.Valid)
	assert.Equal(t, models.MsgEmailDisposable, verdict.Reason)
	assert.Equal(t, int64(1), calls.Load())
}

func TestReoonVerifier_UpstreamFailure(t *testing.T) {
	v, _ := newVerifierFixture(t, VerifierModeQuick, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := v.VerifyEmail(context.Background(), "user@example.com")
	assert.ErrorIs(t, err, models.ErrUpstreamService)
}

func TestReoonVerifier_MalformedResponse(t *testing.T) {
	v, _ := newVerifierFixture(t, VerifierModeQuick, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	_, err := v.VerifyEmail(context.Background(), "user@example.com")
	assert.ErrorIs(t, err, models.ErrUpstreamService)
}
