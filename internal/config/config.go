package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Email     EmailConfig
	Verifier  VerifierConfig
	Turnstile TurnstileConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	BaseURL        string   // public origin used in emailed links
	LoginPath      string   // path of the branded login page
	TrustedProxies []string // CIDR ranges allowed to set forwarding headers
}

type AuthConfig struct {
	SessionSecret        string
	NonceSecret          string
	NonceLifetime        time.Duration
	SessionExpiry        time.Duration
	RememberMeDays       int
	ConfirmationTokenTTL time.Duration
	ResetKeyTTL          time.Duration
	CleanupInterval      time.Duration
	RegistrationDisabled bool
	DefaultRole          string
	LoginRedirect        string
	TimingDelayBaseMs    int
	TimingDelayRandomMs  int
}

type RateLimitConfig struct {
	MaxAttempts      int
	LockoutDuration  time.Duration
	MonitoringPeriod time.Duration
}

type EmailConfig struct {
	AWSRegion   string
	FromAddress string
	FromName    string
}

type VerifierConfig struct {
	Enabled  bool
	APIKey   string
	Mode     string // "quick" or "power"
	Endpoint string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type TurnstileConfig struct {
	Enabled   bool
	SiteKey   string
	SecretKey string
	Endpoint  string
	Forms     []string // form names the challenge applies to
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	sessionSecret := getEnv("SESSION_SECRET", "")
	if sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	nonceSecret := getEnv("NONCE_SECRET", "")
	if nonceSecret == "" {
		return nil, fmt.Errorf("NONCE_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "loginguard"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "lg"),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),
			LoginPath:      getEnv("LOGIN_PATH", "/account-login"),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),
		},
		Auth: AuthConfig{
			SessionSecret:        sessionSecret,
			NonceSecret:          nonceSecret,
			NonceLifetime:        getEnvAsDuration("NONCE_LIFETIME", 24*time.Hour),
			SessionExpiry:        getEnvAsDuration("SESSION_EXPIRY", 48*time.Hour),
			RememberMeDays:       clampDays(getEnvAsInt("REMEMBER_ME_DAYS", 30)),
			ConfirmationTokenTTL: getEnvAsDuration("CONFIRMATION_TOKEN_TTL", 24*time.Hour),
			ResetKeyTTL:          getEnvAsDuration("RESET_KEY_TTL", 24*time.Hour),
			CleanupInterval:      getEnvAsDuration("RESET_KEY_CLEANUP_INTERVAL", 1*time.Hour),
			RegistrationDisabled: getEnvAsBool("REGISTRATION_DISABLED", false),
			DefaultRole:          getEnv("DEFAULT_ROLE", "subscriber"),
			LoginRedirect:        getEnv("LOGIN_REDIRECT", "/"),
			TimingDelayBaseMs:    getEnvAsInt("TIMING_DELAY_BASE_MS", 100),
			TimingDelayRandomMs:  getEnvAsInt("TIMING_DELAY_RANDOM_MS", 100),
		},
		RateLimit: RateLimitConfig{
			MaxAttempts:      getEnvAsInt("RATE_LIMIT_MAX_ATTEMPTS", 6),
			LockoutDuration:  getEnvAsDuration("RATE_LIMIT_LOCKOUT_DURATION", 15*time.Minute),
			MonitoringPeriod: getEnvAsDuration("RATE_LIMIT_MONITORING_PERIOD", 1*time.Hour),
		},
		Email: EmailConfig{
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
			FromName:    getEnv("EMAIL_FROM_NAME", ""),
		},
		Verifier: VerifierConfig{
			Enabled:  getEnvAsBool("EMAIL_VERIFICATION_ENABLED", false),
			APIKey:   getEnv("REOON_API_KEY", ""),
			Mode:     getEnv("REOON_VERIFICATION_MODE", "quick"),
			Endpoint: getEnv("REOON_ENDPOINT", "https://emailverifier.reoon.com/api/v1/verify"),
			Timeout:  getEnvAsDuration("REOON_TIMEOUT", 80*time.Second),
			CacheTTL: getEnvAsDuration("REOON_CACHE_TTL", 1*time.Hour),
		},
		Turnstile: TurnstileConfig{
			Enabled:   getEnvAsBool("TURNSTILE_ENABLED", false),
			SiteKey:   getEnv("TURNSTILE_SITE_KEY", ""),
			SecretKey: getEnv("TURNSTILE_SECRET_KEY", ""),
			Endpoint:  getEnv("TURNSTILE_ENDPOINT", "https://challenges.cloudflare.com/turnstile/v0/siteverify"),
			Forms:     getEnvAsList("TURNSTILE_FORMS"),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateSecret("SESSION_SECRET", sessionSecret, env); err != nil {
		return nil, err
	}
	if err := validateSecret("NONCE_SECRET", nonceSecret, env); err != nil {
		return nil, err
	}

	if cfg.Verifier.Enabled && cfg.Verifier.APIKey == "" {
		return nil, fmt.Errorf("REOON_API_KEY is required when email verification is enabled")
	}
	if cfg.Turnstile.Enabled && cfg.Turnstile.SecretKey == "" {
		return nil, fmt.Errorf("TURNSTILE_SECRET_KEY is required when Turnstile is enabled")
	}

	if len(cfg.Turnstile.Forms) == 0 {
		cfg.Turnstile.Forms = []string{"register"}
	}

	return cfg, nil
}

// validateSecret enforces minimum security standards for signing secrets
func validateSecret(name, secret, env string) error {
	minLength := 16 // Development minimum
	if env == "production" {
		minLength = 32 // Production requires a 256-bit secret
	}

	if len(secret) < minLength {
		return fmt.Errorf("%s must be at least %d characters in %s environment (got %d)",
			name, minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("%s cannot be a common weak value", name)
		}
	}

	return nil
}

// clampDays bounds the remember-me duration to 1..365 days.
func clampDays(days int) int {
	if days < 1 {
		return 1
	}
	if days > 365 {
		return 365
	}
	return days
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RememberMeExpiry converts the configured day count to a duration.
func (a *AuthConfig) RememberMeExpiry() time.Duration {
	return time.Duration(a.RememberMeDays) * 24 * time.Hour
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
