package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SECRET", "a-session-secret-long-enough")
	t.Setenv("NONCE_SECRET", "a-nonce-secret-long-enough!!")
	t.Setenv("DB_PASSWORD", "postgres")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.RateLimit.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.LockoutDuration)
	assert.Equal(t, time.Hour, cfg.RateLimit.MonitoringPeriod)
	assert.Equal(t, 24*time.Hour, cfg.Auth.ConfirmationTokenTTL)
	assert.Equal(t, 80*time.Second, cfg.Verifier.Timeout)
	assert.Equal(t, time.Hour, cfg.Verifier.CacheTTL)
	assert.Equal(t, 30, cfg.Auth.RememberMeDays)
	assert.Equal(t, []string{"register"}, cfg.Turnstile.Forms)
	assert.Equal(t, "/account-login", cfg.Server.LoginPath)
}

func TestLoadMissingSecrets(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("NONCE_SECRET", "")
	t.Setenv("DB_PASSWORD", "postgres")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsShortSecretInProduction(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("SESSION_SECRET", "tooshort")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadClampsRememberMeDays(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REMEMBER_ME_DAYS", "9999")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 365, cfg.Auth.RememberMeDays)

	t.Setenv("REMEMBER_ME_DAYS", "0")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Auth.RememberMeDays)
}

func TestLoadVerifierRequiresKeyWhenEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EMAIL_VERIFICATION_ENABLED", "true")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("REOON_API_KEY", "reoon-key")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Verifier.Enabled)
}

func TestLoadParsesTrustedProxies(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.0/12"}, cfg.Server.TrustedProxies)
}
