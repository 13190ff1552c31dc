package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"loginguard/internal/models"
	pkgauth "loginguard/pkg/auth"
	"loginguard/pkg/logger"
)

// PasswordConfig holds password flow configuration
type PasswordConfig struct {
	ResetKeyTTL time.Duration
}

// PasswordService implements the forgot-password and password-set flows.
// Both ride on the same capability: a random key whose SHA-256 hash is
// persisted, single-use, with an expiry.
type PasswordService struct {
	users       UserRepository
	resetKeys   ResetKeyRepository
	email       EmailService
	rateLimiter *RateLimitService
	config      PasswordConfig
	logger      *slog.Logger
	now         func() time.Time
}

// NewPasswordService creates a new PasswordService
func NewPasswordService(
	users UserRepository,
	resetKeys ResetKeyRepository,
	email EmailService,
	rateLimiter *RateLimitService,
	config PasswordConfig,
	log *slog.Logger,
) *PasswordService {
	if config.ResetKeyTTL <= 0 {
		config.ResetKeyTTL = 24 * time.Hour
	}

	return &PasswordService{
		users:       users,
		resetKeys:   resetKeys,
		email:       email,
		rateLimiter: rateLimiter,
		config:      config,
		logger:      log,
		now:         time.Now,
	}
}

// ForgotPassword issues a reset key and emails the reset link. An unknown
// address is not an error: the caller shows the same success message either
// way, so the endpoint cannot be used to enumerate accounts.
func (s *PasswordService) ForgotPassword(ctx context.Context, email, remoteIP string) error {
	if status, err := s.rateLimiter.Check(ctx, remoteIP); err != nil {
		return models.ErrInternalServer
	} else if !status.Allowed {
		return models.ErrRateLimited
	}

	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.rateLimiter.RecordAttempt(ctx, remoteIP)
			s.logger.Info("password reset requested for unknown address",
				slog.String("email", logger.SanitizedEmail(email)))
			return nil
		}
		s.logger.Error("failed to look up user", slog.Any("error", err))
		return models.ErrInternalServer
	}

	key, keyHash, err := generateResetKey()
	if err != nil {
		s.logger.Error("failed to generate reset key", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if _, err := s.resetKeys.Create(ctx, user.ID, keyHash, s.now().Add(s.config.ResetKeyTTL)); err != nil {
		s.logger.Error("failed to store reset key", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.email.SendPasswordResetEmail(ctx, user.Email, key); err != nil {
		return fmt.Errorf("%w: %v", models.ErrUpstreamService, err)
	}

	// Successful requests count against the limit too, so one client cannot
	// pump out reset emails until the window locks it out.
	s.rateLimiter.RecordAttempt(ctx, remoteIP)

	s.logger.Info("password reset email sent",
		slog.String("user_id", user.ID),
		slog.String("email", logger.SanitizedEmail(user.Email)))

	return nil
}

// CompleteResetInput carries a reset or set-password form submission
type CompleteResetInput struct {
	Email           string
	Key             string
	Password        string
	PasswordConfirm string
}

// CompleteReset redeems a reset key and installs the new password. The key
// is marked used before the password is written, so a key redeems at most
// once even under concurrent submissions.
func (s *PasswordService) CompleteReset(ctx context.Context, input CompleteResetInput) error {
	if input.Password != input.PasswordConfirm {
		return models.ErrPasswordMismatch
	}

	if err := pkgauth.ValidatePassword(input.Password); err != nil {
		return err
	}

	user, resetKey, err := s.verifyResetKey(ctx, input.Key, input.Email)
	if err != nil {
		return err
	}

	if err := s.resetKeys.MarkUsed(ctx, resetKey.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrTokenInvalid
		}
		s.logger.Error("failed to mark reset key used", slog.Any("error", err))
		return models.ErrInternalServer
	}

	hash, err := pkgauth.HashPassword(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		s.logger.Error("failed to update password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("password updated", slog.String("user_id", user.ID))

	return nil
}

// verifyResetKey resolves a submitted key+login pair to a live reset key and
// its owner. All failure shapes (unknown key, expired, used, wrong login)
// collapse into ErrTokenInvalid.
func (s *PasswordService) verifyResetKey(ctx context.Context, key, email string) (*models.User, *models.PasswordResetKey, error) {
	if key == "" || email == "" {
		return nil, nil, models.ErrTokenInvalid
	}

	resetKey, err := s.resetKeys.GetByKeyHash(ctx, hashResetKey(key))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, models.ErrTokenInvalid
		}
		s.logger.Error("failed to look up reset key", slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}

	if !resetKey.IsValid() {
		return nil, nil, models.ErrTokenInvalid
	}

	user, err := s.users.GetByID(ctx, resetKey.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, models.ErrTokenInvalid
		}
		s.logger.Error("failed to look up user", slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}

	if !strings.EqualFold(user.Email, strings.TrimSpace(email)) {
		return nil, nil, models.ErrTokenInvalid
	}

	return user, resetKey, nil
}

// generateResetKey returns a fresh capability key and the hash to persist.
// Only the hash touches the database; the key itself exists in the emailed
// link and nowhere else.
func generateResetKey() (key string, keyHash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	key = base64.RawURLEncoding.EncodeToString(buf)
	return key, hashResetKey(key), nil
}

func hashResetKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// randomPlaceholderPassword returns a bcrypt hash of random bytes. It is
// installed on accounts created by confirmation, before the owner has chosen
// a password; since the plaintext is discarded, nothing can log in with it.
func randomPlaceholderPassword() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return pkgauth.HashPassword(base64.RawURLEncoding.EncodeToString(buf))
}
