package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"loginguard/internal/auth"
	"loginguard/internal/models"
	"loginguard/internal/store"
	"loginguard/pkg/logger"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
}

// ResetKeyRepository defines the interface for password reset key persistence
type ResetKeyRepository interface {
	Create(ctx context.Context, userID, keyHash string, expiresAt time.Time) (*models.PasswordResetKey, error)
	GetByKeyHash(ctx context.Context, keyHash string) (*models.PasswordResetKey, error)
	MarkUsed(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID string) error
	CleanupExpired(ctx context.Context) (int64, error)
}

// RegistrationConfig holds registration behavior configuration
type RegistrationConfig struct {
	Disabled    bool
	PendingTTL  time.Duration
	ResetKeyTTL time.Duration
	DefaultRole string
}

// RegistrationService implements registration with email confirmation. No
// account exists until the emailed confirmation link is redeemed; until then
// the submission lives in the ephemeral store, keyed by the token secret.
type RegistrationService struct {
	users         UserRepository
	resetKeys     ResetKeyRepository
	store         *store.Store
	confirmations *auth.ConfirmationManager
	email         EmailService
	verifier      EmailVerifier
	rateLimiter   *RateLimitService
	config        RegistrationConfig
	logger        *slog.Logger
	now           func() time.Time
}

// NewRegistrationService creates a new RegistrationService. verifier may be
// nil when address verification is disabled.
func NewRegistrationService(
	users UserRepository,
	resetKeys ResetKeyRepository,
	st *store.Store,
	confirmations *auth.ConfirmationManager,
	email EmailService,
	verifier EmailVerifier,
	rateLimiter *RateLimitService,
	config RegistrationConfig,
	log *slog.Logger,
) *RegistrationService {
	if config.PendingTTL <= 0 {
		config.PendingTTL = 24 * time.Hour
	}
	if config.ResetKeyTTL <= 0 {
		config.ResetKeyTTL = 24 * time.Hour
	}

	return &RegistrationService{
		users:         users,
		resetKeys:     resetKeys,
		store:         st,
		confirmations: confirmations,
		email:         email,
		verifier:      verifier,
		rateLimiter:   rateLimiter,
		config:        config,
		logger:        log,
		now:           time.Now,
	}
}

// RegisterInput carries a registration form submission
type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	RemoteIP  string
}

// ConfirmResult is returned on successful redemption of a confirmation token
type ConfirmResult struct {
	User     *models.User
	SetupKey string
}

func pendingKey(secret string) string {
	return "pending:" + secret
}

// Register validates a registration submission, parks it as a pending
// registration and emails the confirmation link. No user row is written.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) error {
	if s.config.Disabled {
		return models.ErrRegistrationDisabled
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	if status, err := s.rateLimiter.Check(ctx, input.RemoteIP); err != nil {
		return models.ErrInternalServer
	} else if !status.Allowed {
		return models.ErrRateLimited
	}

	if s.verifier != nil {
		verdict, err := s.verifier.VerifyEmail(ctx, email)
		if err != nil {
			// No verdict means no email: we won't park a registration we
			// cannot send a confirmation for.
			return err
		}
		if !verdict.Valid {
			s.rateLimiter.RecordAttempt(ctx, input.RemoteIP)
			return &models.EmailRejectedError{Reason: verdict.Reason}
		}
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		s.logger.Error("failed to check email existence", slog.Any("error", err))
		return models.ErrInternalServer
	}
	if exists {
		s.rateLimiter.RecordAttempt(ctx, input.RemoteIP)
		return models.ErrDuplicateAccount
	}

	token, secret, err := s.confirmations.Generate()
	if err != nil {
		s.logger.Error("failed to generate confirmation token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	pending := models.PendingRegistration{
		Email:     email,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		CreatedAt: s.now(),
	}

	raw, err := json.Marshal(pending)
	if err != nil {
		return models.ErrInternalServer
	}

	if err := s.store.Set(ctx, pendingKey(secret), string(raw), s.config.PendingTTL); err != nil {
		s.logger.Error("failed to store pending registration", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.email.SendConfirmationEmail(ctx, email, token); err != nil {
		// A pending record nobody can confirm is just junk; remove it so the
		// user can retry immediately.
		s.store.Delete(ctx, pendingKey(secret))
		return fmt.Errorf("%w: %v", models.ErrUpstreamService, err)
	}

	// Successful submissions count against the limit too, so one client
	// cannot pump out confirmation emails until the window locks it out.
	s.rateLimiter.RecordAttempt(ctx, input.RemoteIP)

	s.logger.Info("registration pending confirmation",
		slog.String("email", logger.SanitizedEmail(email)))

	return nil
}

// Confirm redeems a confirmation token: it validates the token, consumes the
// pending registration and creates the account. The consume step is atomic,
// so two racing redemptions of the same link produce exactly one account.
//
// The created account gets an unguessable placeholder password plus a
// password-set capability the user follows next; the placeholder itself is
// never disclosed, so the account is unreachable until a password is set.
func (s *RegistrationService) Confirm(ctx context.Context, encodedToken string) (*ConfirmResult, error) {
	token, err := s.confirmations.Validate(encodedToken)
	if err != nil {
		return nil, err
	}

	raw, found, err := s.store.Get(ctx, pendingKey(token.Secret))
	if err != nil {
		s.logger.Error("failed to read pending registration", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if !found {
		// Expired pending record and never-issued secret are
		// indistinguishable here, deliberately.
		return nil, models.ErrTokenExpired
	}

	var pending models.PendingRegistration
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		s.logger.Error("corrupt pending registration record", slog.Any("error", err))
		s.store.Delete(ctx, pendingKey(token.Secret))
		return nil, models.ErrTokenInvalid
	}

	// Someone may have registered this address since the form was submitted.
	// The pending record is left in place: a different outcome on retry is
	// possible if that account goes away.
	exists, err := s.users.EmailExists(ctx, pending.Email)
	if err != nil {
		s.logger.Error("failed to check email existence", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if exists {
		return nil, models.ErrDuplicateAccount
	}

	if _, taken, err := s.store.Take(ctx, pendingKey(token.Secret)); err != nil {
		s.logger.Error("failed to consume pending registration", slog.Any("error", err))
		return nil, models.ErrInternalServer
	} else if !taken {
		// Lost the race with a concurrent redemption
		return nil, models.ErrTokenExpired
	}

	user, err := s.createConfirmedUser(ctx, pending)
	if err != nil {
		return nil, err
	}

	setupKey, keyHash, err := generateResetKey()
	if err != nil {
		s.logger.Error("failed to generate setup key", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if _, err := s.resetKeys.Create(ctx, user.ID, keyHash, s.now().Add(s.config.ResetKeyTTL)); err != nil {
		s.logger.Error("failed to store setup key", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("registration confirmed",
		slog.String("user_id", user.ID),
		slog.String("email", logger.SanitizedEmail(user.Email)))

	return &ConfirmResult{User: user, SetupKey: setupKey}, nil
}

func (s *RegistrationService) createConfirmedUser(ctx context.Context, pending models.PendingRegistration) (*models.User, error) {
	placeholder, err := randomPlaceholderPassword()
	if err != nil {
		return nil, models.ErrInternalServer
	}

	user, err := s.users.Create(ctx, &models.User{
		Email:        pending.Email,
		PasswordHash: placeholder,
		FirstName:    pending.FirstName,
		LastName:     pending.LastName,
		Role:         s.config.DefaultRole,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrDuplicateAccount
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrAccountCreationFailed
	}

	return user, nil
}
