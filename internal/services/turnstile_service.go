package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"loginguard/internal/models"
)

const defaultTurnstileEndpoint = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// ChallengeVerifier validates an anti-bot challenge response submitted with a form
type ChallengeVerifier interface {
	VerifyChallenge(ctx context.Context, token, remoteIP string) error
	AppliesTo(form string) bool
}

// TurnstileService verifies Cloudflare Turnstile challenge responses via the
// siteverify endpoint.
type TurnstileService struct {
	secretKey  string
	endpoint   string
	forms      []string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewTurnstileService creates a new TurnstileService. forms lists the form
// names the challenge is enforced on.
func NewTurnstileService(secretKey, endpoint string, forms []string, log *slog.Logger) *TurnstileService {
	if endpoint == "" {
		endpoint = defaultTurnstileEndpoint
	}

	return &TurnstileService{
		secretKey: secretKey,
		endpoint:  endpoint,
		forms:     forms,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: log,
	}
}

// AppliesTo reports whether the challenge is enforced on the named form
func (s *TurnstileService) AppliesTo(form string) bool {
	return slices.Contains(s.forms, form)
}

type turnstileResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// VerifyChallenge validates the challenge token with Cloudflare. A missing
// or rejected token returns models.ErrSecurityCheckFailed; transport
// failures return models.ErrUpstreamService.
func (s *TurnstileService) VerifyChallenge(ctx context.Context, token, remoteIP string) error {
	if token == "" {
		return models.ErrSecurityCheckFailed
	}

	form := url.Values{}
	form.Set("secret", s.secretKey)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrUpstreamService, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("turnstile verification request failed", slog.Any("error", err))
		return fmt.Errorf("%w: %v", models.ErrUpstreamService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Error("turnstile returned non-200", slog.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: turnstile status %d", models.ErrUpstreamService, resp.StatusCode)
	}

	var result turnstileResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("%w: %v", models.ErrUpstreamService, err)
	}

	if !result.Success {
		s.logger.Info("turnstile challenge rejected",
			slog.Any("error_codes", result.ErrorCodes))
		return models.ErrSecurityCheckFailed
	}

	return nil
}
