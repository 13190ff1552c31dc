package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"loginguard/internal/models"
	"loginguard/internal/store"
	"loginguard/pkg/logger"
)

const (
	VerifierModeQuick = "quick"
	VerifierModePower = "power"

	defaultVerifierEndpoint = "https://emailverifier.reoon.com/api/v1/verify"

	// cachedValid marks a positive verdict in the cache; anything else is a
	// rejection reason code.
	cachedValid = "1"
)

// EmailVerifier checks whether an address is worth sending mail to
type EmailVerifier interface {
	VerifyEmail(ctx context.Context, email string) (Verdict, error)
}

// Verdict is the outcome of address verification. Reason holds the message
// code explaining a rejection and is empty for valid addresses.
type Verdict struct {
	Valid  bool
	Reason string
}

// verifierResult is the subset of the Reoon response the decision needs
type verifierResult struct {
	Status        string  `json:"status"`
	IsSafeToSend  bool    `json:"is_safe_to_send"`
	IsDeliverable bool    `json:"is_deliverable"`
	OverallScore  float64 `json:"overall_score"`
	IsDisposable  bool    `json:"is_disposable"`
	IsRoleAccount bool    `json:"is_role_account"`
	MxAcceptsMail bool    `json:"mx_accepts_mail"`
	HasInboxFull  bool    `json:"has_inbox_full"`
	IsDisabled    bool    `json:"is_disabled"`
}

// ReoonVerifier validates email addresses against the Reoon API. Results are
// cached in the ephemeral store so repeated submissions of the same address
// don't burn API credits.
type ReoonVerifier struct {
	apiKey     string
	mode       string
	endpoint   string
	cacheTTL   time.Duration
	httpClient *http.Client
	store      *store.Store
	logger     *slog.Logger
}

// NewReoonVerifier creates a new ReoonVerifier. mode is "quick" or "power".
func NewReoonVerifier(apiKey, mode, endpoint string, timeout, cacheTTL time.Duration, st *store.Store, log *slog.Logger) *ReoonVerifier {
	if endpoint == "" {
		endpoint = defaultVerifierEndpoint
	}
	if mode != VerifierModePower {
		mode = VerifierModeQuick
	}

	return &ReoonVerifier{
		apiKey:   apiKey,
		mode:     mode,
		endpoint: endpoint,
		cacheTTL: cacheTTL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		store:  st,
		logger: log,
	}
}

func verifierCacheKey(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "verifier:" + hex.EncodeToString(sum[:])
}

// VerifyEmail reports whether the address passes verification. Cached
// verdicts are reused for the cache TTL. Transport and upstream failures
// return models.ErrUpstreamService so the caller can decide whether to
// proceed without a verdict.
func (v *ReoonVerifier) VerifyEmail(ctx context.Context, email string) (Verdict, error) {
	cacheKey := verifierCacheKey(email)

	if cached, found, err := v.store.Get(ctx, cacheKey); err == nil && found {
		if cached == cachedValid {
			return Verdict{Valid: true}, nil
		}
		return Verdict{Reason: cached}, nil
	}

	params := url.Values{}
	params.Set("email", email)
	params.Set("key", v.apiKey)
	params.Set("mode", v.mode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", models.ErrUpstreamService, err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		v.logger.Error("email verifier request failed", slog.Any("error", err))
		return Verdict{}, fmt.Errorf("%w: %v", models.ErrUpstreamService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		v.logger.Error("email verifier returned non-200", slog.Int("status", resp.StatusCode))
		return Verdict{}, fmt.Errorf("%w: verifier status %d", models.ErrUpstreamService, resp.StatusCode)
	}

	var result verifierResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", models.ErrUpstreamService, err)
	}

	verdict := v.evaluate(result)

	cached := verdict.Reason
	if verdict.Valid {
		cached = cachedValid
	}
	if err := v.store.Set(ctx, cacheKey, cached, v.cacheTTL); err != nil {
		v.logger.Warn("failed to cache verifier result", slog.Any("error", err))
	}

	v.logger.Info("email verified",
		slog.String("email", logger.SanitizedEmail(email)),
		slog.String("mode", v.mode),
		slog.Bool("valid", verdict.Valid),
		slog.String("reason", verdict.Reason))

	return verdict, nil
}

func (v *ReoonVerifier) evaluate(result verifierResult) Verdict {
	if v.mode == VerifierModePower {
		if result.Status == "safe" &&
			result.IsSafeToSend &&
			result.IsDeliverable &&
			result.OverallScore >= 80 {
			return Verdict{Valid: true}
		}
	} else if result.Status == "valid" {
		return Verdict{Valid: true}
	}
	return Verdict{Reason: v.rejectionReason(result)}
}

// rejectionReason picks the most specific message code for a failed result.
// The shared checks apply in both modes; power mode adds safety checks.
func (v *ReoonVerifier) rejectionReason(result verifierResult) string {
	switch {
	case result.IsDisposable:
		return models.MsgEmailDisposable
	case result.IsRoleAccount:
		return models.MsgEmailRoleAccount
	case !result.MxAcceptsMail:
		return models.MsgEmailNoMx
	case result.HasInboxFull:
		return models.MsgEmailInboxFull
	case result.IsDisabled:
		return models.MsgEmailDisabled
	}
	if v.mode == VerifierModePower && (result.Status != "safe" || !result.IsSafeToSend) {
		return models.MsgEmailUnsafe
	}
	return models.MsgEmailUndeliverable
}
