package handlers

import (
	"context"
	"errors"
	"net/http"

	"loginguard/internal/auth"
	"loginguard/internal/models"
	"loginguard/internal/services"
	pkghttp "loginguard/pkg/http"
)

// RegistrationServiceInterface defines the interface for registration logic
type RegistrationServiceInterface interface {
	Register(ctx context.Context, input services.RegisterInput) error
	Confirm(ctx context.Context, encodedToken string) (*services.ConfirmResult, error)
}

// RegistrationHandler handles the registration form post and the
// confirmation link.
type RegistrationHandler struct {
	service   RegistrationServiceInterface
	nonces    *auth.NonceService
	challenge services.ChallengeVerifier
	ipConfig  *pkghttp.IPConfig
	loginPath string
}

// NewRegistrationHandler creates a new RegistrationHandler. challenge may be
// nil when the anti-bot check is disabled.
func NewRegistrationHandler(service RegistrationServiceInterface, nonces *auth.NonceService, challenge services.ChallengeVerifier, ipConfig *pkghttp.IPConfig, loginPath string) *RegistrationHandler {
	return &RegistrationHandler{
		service:   service,
		nonces:    nonces,
		challenge: challenge,
		ipConfig:  ipConfig,
		loginPath: loginPath,
	}
}

// RegisterForm represents the registration form fields
type RegisterForm struct {
	Email     string `validate:"required,email"`
	FirstName string `validate:"required,max=100"`
	LastName  string `validate:"max=100"`
}

// Register handles the registration form post
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		pkghttp.RedirectError(w, r, h.loginPath, models.MsgGenericError)
		return
	}

	form := RegisterForm{
		Email:     r.PostFormValue("email"),
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
	}
	if code := validationMessage(form); code != "" {
		pkghttp.RedirectError(w, r, h.loginPath, code)
		return
	}

	if !h.nonces.Verify(r.PostFormValue("nonce"), FormRegister) {
		pkghttp.RedirectError(w, r, h.loginPath, models.MsgInvalidNonce)
		return
	}

	remoteIP := pkghttp.ExtractClientIP(r, h.ipConfig)

	if h.challenge != nil && h.challenge.AppliesTo(FormRegister) {
		if err := h.challenge.VerifyChallenge(r.Context(), r.PostFormValue("cf-turnstile-response"), remoteIP); err != nil {
			pkghttp.RedirectError(w, r, h.loginPath, models.MsgChallengeFailed)
			return
		}
	}

	err := h.service.Register(r.Context(), services.RegisterInput{
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		RemoteIP:  remoteIP,
	})
	if err != nil {
		var rejected *models.EmailRejectedError
		switch {
		case errors.Is(err, models.ErrRegistrationDisabled):
			pkghttp.RedirectError(w, r, h.loginPath, models.MsgRegistrationDisabled)
		case errors.Is(err, models.ErrRateLimited):
			pkghttp.RedirectError(w, r, h.loginPath, models.MsgTooManyAttempts)
		case errors.Is(err, models.ErrDuplicateAccount):
			pkghttp.RedirectError(w, r, h.loginPath, models.MsgEmailExists)
		case errors.As(err, &rejected):
			pkghttp.RedirectError(w, r, h.loginPath, rejected.Reason)
		case errors.Is(err, models.ErrInvalidInput):
			pkghttp.RedirectError(w, r, h.loginPath, models.MsgInvalidEmail)
		case errors.Is(err, models.ErrUpstreamService):
			pkghttp.RedirectError(w, r, h.loginPath, models.MsgEmailSendFailed)
		default:
			pkghttp.RedirectError(w, r, h.loginPath, models.MsgRegistrationFailed)
		}
		return
	}

	pkghttp.RedirectSuccess(w, r, h.loginPath, models.MsgConfirmationSent)
}

// Confirm redeems an emailed confirmation link. A fabricated, corrupted or
// stale token gets the same message; on success the browser lands on the
// set-password form with a fresh capability key.
func (h *RegistrationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		pkghttp.RedirectError(w, r, h.loginPath, models.MsgConfirmationExpired)
		return
	}

	result, err := h.service.Confirm(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrTokenInvalid), errors.Is(err, models.ErrTokenExpired):
			pkghttp.RedirectError(w, r, h.loginPath, models.MsgConfirmationExpired)
		case errors.Is(err, models.ErrDuplicateAccount):
			pkghttp.RedirectError(w, r, h.loginPath, models.MsgEmailExists)
		default:
			pkghttp.RedirectError(w, r, h.loginPath, models.MsgRegistrationFailed)
		}
		return
	}

	pkghttp.RedirectWithParams(w, r, h.loginPath, map[string]string{
		"action": FormSetPassword,
		"key":    result.SetupKey,
		"login":  result.User.Email,
	})
}
