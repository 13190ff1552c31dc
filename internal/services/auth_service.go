package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"loginguard/internal/auth"
	"loginguard/internal/models"
	pkgauth "loginguard/pkg/auth"
	"loginguard/pkg/logger"
)

// AuthService handles login and logout
type AuthService struct {
	users       UserRepository
	sessions    *auth.SessionManager
	rateLimiter *RateLimitService
	delay       *auth.TimingDelay
	logger      *slog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users UserRepository,
	sessions *auth.SessionManager,
	rateLimiter *RateLimitService,
	delay *auth.TimingDelay,
	log *slog.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		sessions:    sessions,
		rateLimiter: rateLimiter,
		delay:       delay,
		logger:      log,
	}
}

// LoginInput carries a login form submission
type LoginInput struct {
	Email    string
	Password string
	Remember bool
	RemoteIP string
}

// LoginResult is returned on successful authentication
type LoginResult struct {
	User     *models.User
	Token    string
	Lifetime time.Duration
}

// Login authenticates a user. Failures are throttled per client IP and padded
// with an artificial delay; unknown account and wrong password are
// indistinguishable from outside. A success clears the client's failure
// count.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	status, err := s.rateLimiter.Check(ctx, input.RemoteIP)
	if err != nil {
		return nil, models.ErrInternalServer
	}
	if !status.Allowed {
		s.logger.Info("login blocked by rate limit",
			slog.String("ip", input.RemoteIP),
			slog.Duration("retry_after", status.RetryAfter))
		return nil, models.ErrRateLimited
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, s.fail(ctx, input.RemoteIP, "empty credentials")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, s.fail(ctx, input.RemoteIP, "unknown account")
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, input.Password); err != nil {
		return nil, s.fail(ctx, input.RemoteIP, "wrong password")
	}

	token, err := s.sessions.Generate(user.ID, user.Email, input.Remember)
	if err != nil {
		s.logger.Error("failed to issue session token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.rateLimiter.Clear(ctx, input.RemoteIP)

	s.logger.Info("login succeeded",
		slog.String("user_id", user.ID),
		slog.String("email", logger.SanitizedEmail(user.Email)),
		slog.Bool("remember", input.Remember))

	return &LoginResult{
		User:     user,
		Token:    token,
		Lifetime: s.sessions.Lifetime(input.Remember),
	}, nil
}

// fail records the attempt, applies the timing pad and returns the one
// credential error every failure shape shares.
func (s *AuthService) fail(ctx context.Context, remoteIP, reason string) error {
	s.logger.Info("login failed", slog.String("reason", reason))
	s.rateLimiter.RecordAttempt(ctx, remoteIP)
	s.delay.Wait()
	return models.ErrInvalidCredentials
}

// ValidateSession verifies a session token and resolves its user.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.sessions.Validate(token)
	if err != nil {
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, models.ErrInternalServer
	}

	return user, nil
}
