package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"loginguard/internal/store"
)

// RateLimitConfig holds configuration for login attempt limiting
type RateLimitConfig struct {
	MaxAttempts      int
	LockoutDuration  time.Duration
	MonitoringWindow time.Duration
}

// RateLimitService tracks failed login attempts per client IP and locks out
// clients that exceed the limit. Counters and locks live in the ephemeral
// store; nothing is persisted.
type RateLimitService struct {
	store  *store.Store
	config RateLimitConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewRateLimitService creates a new RateLimitService
func NewRateLimitService(st *store.Store, config RateLimitConfig, logger *slog.Logger) *RateLimitService {
	return &RateLimitService{
		store:  st,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

func attemptsKey(ip string) string {
	return "ratelimit:attempts:" + ip
}

func lockoutKey(ip string) string {
	return "ratelimit:lock:" + ip
}

// RateLimitStatus is the outcome of a Check. RetryAfter is only set when the
// client is locked out; RemainingAttempts is how many failures are left
// before a lockout.
type RateLimitStatus struct {
	Allowed           bool
	RetryAfter        time.Duration
	RemainingAttempts int
}

// Check reports whether the client may attempt a login. A lock whose stored
// unlock time has already passed is cleared along with the attempt counter,
// so the client starts fresh.
//
// Store failures fail open: availability outranks attempt limiting, and the
// credential check still stands between the client and a session.
func (s *RateLimitService) Check(ctx context.Context, ip string) (RateLimitStatus, error) {
	allowedFresh := RateLimitStatus{Allowed: true, RemainingAttempts: s.config.MaxAttempts}

	val, found, err := s.store.Get(ctx, lockoutKey(ip))
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			s.logger.Error("rate limit check failed, allowing attempt", slog.Any("error", err))
			return allowedFresh, nil
		}
		return RateLimitStatus{}, err
	}

	if found {
		unlockAt, parseErr := strconv.ParseInt(val, 10, 64)
		if parseErr != nil {
			s.logger.Warn("malformed lockout record, clearing", slog.String("ip", ip))
			s.clear(ctx, ip)
			return allowedFresh, nil
		}

		remaining := time.Unix(unlockAt, 0).Sub(s.now())
		if remaining > 0 {
			return RateLimitStatus{RetryAfter: remaining}, nil
		}

		s.clear(ctx, ip)
		return allowedFresh, nil
	}

	count, err := s.store.GetInt(ctx, attemptsKey(ip))
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return allowedFresh, nil
		}
		return RateLimitStatus{}, err
	}

	// The lock key's TTL matches the lockout duration, so a naturally
	// expired lock leaves only the counter behind. A counter at or above
	// the limit with no live lock means the lockout has lapsed; reset it
	// so the client gets the full allowance back instead of re-locking on
	// the next failure.
	if int(count) >= s.config.MaxAttempts {
		s.clear(ctx, ip)
		return allowedFresh, nil
	}

	return RateLimitStatus{Allowed: true, RemainingAttempts: s.config.MaxAttempts - int(count)}, nil
}

// RecordAttempt registers a failed login attempt for the client. Each call
// refreshes the counter's expiry, so the monitoring window restarts on every
// failure. Once the count reaches MaxAttempts the client is locked out and
// locked reports true.
func (s *RateLimitService) RecordAttempt(ctx context.Context, ip string) (locked bool, err error) {
	count, err := s.store.Incr(ctx, attemptsKey(ip), s.config.MonitoringWindow)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			s.logger.Error("failed to record login attempt", slog.Any("error", err))
			return false, nil
		}
		return false, err
	}

	if count < int64(s.config.MaxAttempts) {
		return false, nil
	}

	unlockAt := s.now().Add(s.config.LockoutDuration).Unix()
	if err := s.store.Set(ctx, lockoutKey(ip), strconv.FormatInt(unlockAt, 10), s.config.LockoutDuration); err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			s.logger.Error("failed to set lockout", slog.Any("error", err))
			return false, nil
		}
		return false, err
	}

	s.logger.Warn("client locked out",
		slog.String("ip", ip),
		slog.Int64("failed_attempts", count),
		slog.Duration("lockout_duration", s.config.LockoutDuration))

	return true, nil
}

// Clear removes the attempt counter and any lock for the client. Called
// after a successful login.
func (s *RateLimitService) Clear(ctx context.Context, ip string) {
	s.clear(ctx, ip)
}

func (s *RateLimitService) clear(ctx context.Context, ip string) {
	if err := s.store.Delete(ctx, attemptsKey(ip), lockoutKey(ip)); err != nil {
		s.logger.Error("failed to clear rate limit state", slog.Any("error", err))
	}
}
