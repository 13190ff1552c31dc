package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loginguard/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRateLimitFixture(t *testing.T, config RateLimitConfig) (*RateLimitService, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRateLimitService(store.New(client, "test"), config, testLogger()), mr
}

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	svc, _ := newRateLimitFixture(t, RateLimitConfig{
		MaxAttempts:      3,
		LockoutDuration:  15 * time.Minute,
		MonitoringWindow: time.Hour,
	})
	ctx := context.Background()
	ip := "203.0.113.5"

	for i := 0; i < 2; i++ {
		locked, err := svc.RecordAttempt(ctx, ip)
		require.NoError(t, err)
		assert.False(t, locked)

		status, err := svc.Check(ctx, ip)
		require.NoError(t, err)
		assert.True(t, status.Allowed)
		assert.Equal(t, 3-(i+1), status.RemainingAttempts)
	}
}

func TestRateLimit_LocksAtMaxAttempts(t *testing.T) {
	svc, _ := newRateLimitFixture(t, RateLimitConfig{
		MaxAttempts:      3,
		LockoutDuration:  15 * time.Minute,
		MonitoringWindow: time.Hour,
	})
	ctx := context.Background()
	ip := "203.0.113.5"

	svc.RecordAttempt(ctx, ip)
	svc.RecordAttempt(ctx, ip)
	locked, err := svc.RecordAttempt(ctx, ip)
	require.NoError(t, err)
	assert.True(t, locked)

	status, err := svc.Check(ctx, ip)
	require.NoError(t, err)
	assert.False(t, status.Allowed)
	assert.Greater(t, status.RetryAfter, 14*time.Minute)
	assert.LessOrEqual(t, status.RetryAfter, 15*time.Minute)
}

func TestRateLimit_IsolatesClients(t *testing.T) {
	svc, _ := newRateLimitFixture(t, RateLimitConfig{
		MaxAttempts:      1,
		LockoutDuration:  15 * time.Minute,
		MonitoringWindow: time.Hour,
	})
	ctx := context.Background()

	locked, err := svc.RecordAttempt(ctx, "203.0.113.5")
	require.NoError(t, err)
	assert.True(t, locked)

	status, err := svc.Check(ctx, "198.51.100.7")
	require.NoError(t, err)
	assert.True(t, status.Allowed)
}

func TestRateLimit_ExpiredLockClearsState(t *testing.T) {
	svc, mr := newRateLimitFixture(t, RateLimitConfig{
		MaxAttempts:      2,
		LockoutDuration:  15 * time.Minute,
		MonitoringWindow: time.Hour,
	})
	ctx := context.Background()
	ip := "203.0.113.5"

	svc.RecordAttempt(ctx, ip)
	locked, err := svc.RecordAttempt(ctx, ip)
	require.NoError(t, err)
	require.True(t, locked)

	// Move both the wall clock and the store clock past the lock expiry
	svc.now = func() time.Time { return time.Now().Add(16 * time.Minute) }
	mr.FastForward(16 * time.Minute)

	status, err := svc.Check(ctx, ip)
	require.NoError(t, err)
	assert.True(t, status.Allowed)
	assert.Equal(t, 2, status.RemainingAttempts)

	// State was cleared, so the next failure starts a new count
	locked, err = svc.RecordAttempt(ctx, ip)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestRateLimit_NaturallyExpiredLockRestoresAllowance(t *testing.T) {
	svc, mr := newRateLimitFixture(t, RateLimitConfig{
		MaxAttempts:      2,
		LockoutDuration:  15 * time.Minute,
		MonitoringWindow: time.Hour,
	})
	ctx := context.Background()
	ip := "203.0.113.5"

	svc.RecordAttempt(ctx, ip)
	locked, err := svc.RecordAttempt(ctx, ip)
	require.NoError(t, err)
	require.True(t, locked)

	// The lock key expires on its own while the counter, whose TTL is the
	// longer monitoring window, is still alive
	mr.FastForward(16 * time.Minute)

	status, err := svc.Check(ctx, ip)
	require.NoError(t, err)
	assert.True(t, status.Allowed)
	assert.Equal(t, 2, status.RemainingAttempts)

	// A single new failure must start a fresh count, not re-lock
	locked, err = svc.RecordAttempt(ctx, ip)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestRateLimit_ClearResetsAfterSuccess(t *testing.T) {
	svc, _ := newRateLimitFixture(t, RateLimitConfig{
		MaxAttempts:      2,
		LockoutDuration:  15 * time.Minute,
		MonitoringWindow: time.Hour,
	})
	ctx := context.Background()
	ip := "203.0.113.5"

	svc.RecordAttempt(ctx, ip)
	svc.Clear(ctx, ip)

	locked, err := svc.RecordAttempt(ctx, ip)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestRateLimit_FailsOpenWhenStoreDown(t *testing.T) {
	svc, mr := newRateLimitFixture(t, RateLimitConfig{
		MaxAttempts:      1,
		LockoutDuration:  15 * time.Minute,
		MonitoringWindow: time.Hour,
	})
	ctx := context.Background()

	mr.Close()

	status, err := svc.Check(ctx, "203.0.113.5")
	require.NoError(t, err)
	assert.True(t, status.Allowed)

	locked, err := svc.RecordAttempt(ctx, "203.0.113.5")
	require.NoError(t, err)
	assert.False(t, locked)
}
