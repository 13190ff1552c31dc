package handlers

import (
	"context"
	"errors"
	"net/http"

	"loginguard/internal/auth"
	"loginguard/internal/models"
	"loginguard/internal/services"
	pkgauth "loginguard/pkg/auth"
	pkghttp "loginguard/pkg/http"
)

// PasswordServiceInterface defines the interface for password flow logic
type PasswordServiceInterface interface {
	ForgotPassword(ctx context.Context, email, remoteIP string) error
	CompleteReset(ctx context.Context, input services.CompleteResetInput) error
}

// PasswordHandler handles the forgot-password, reset-password and
// set-password form posts.
type PasswordHandler struct {
	service   PasswordServiceInterface
	nonces    *auth.NonceService
	challenge services.ChallengeVerifier
	ipConfig  *pkghttp.IPConfig
	loginPath string
}

// NewPasswordHandler creates a new PasswordHandler. challenge may be nil
// when the anti-bot check is disabled.
func NewPasswordHandler(service PasswordServiceInterface, nonces *auth.NonceService, challenge services.ChallengeVerifier, ipConfig *pkghttp.IPConfig, loginPath string) *PasswordHandler {
	return &PasswordHandler{
		service:   service,
		nonces:    nonces,
		challenge: challenge,
		ipConfig:  ipConfig,
		loginPath: loginPath,
	}
}

// ForgotPasswordForm represents the forgot-password form fields
type ForgotPasswordForm struct {
	Email string `validate:"required,email"`
}

// ForgotPassword handles the forgot-password form post. Unknown addresses
// get the same success message as known ones.
func (h *PasswordHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		pkghttp.RedirectError(w, r, h.loginPath, models.MsgGenericError)
		return
	}

	form := ForgotPasswordForm{Email: r.PostFormValue("email")}
	if code := validationMessage(form); code != "" {
		pkghttp.RedirectError(w, r, h.loginPath, code)
		return
	}

	if !h.nonces.Verify(r.PostFormValue("nonce"), FormForgotPassword) {
		pkghttp.RedirectError(w, r, h.loginPath, models.MsgInvalidNonce)
		return
	}

	remoteIP := pkghttp.ExtractClientIP(r, h.ipConfig)

	if h.challenge != nil && h.challenge.AppliesTo(FormForgotPassword) {
		if err := h.challenge.VerifyChallenge(r.Context(), r.PostFormValue("cf-turnstile-response"), remoteIP); err != nil {
			pkghttp.RedirectError(w, r, h.loginPath, models.MsgChallengeFailed)
			return
		}
	}

	if err := h.service.ForgotPassword(r.Context(), form.Email, remoteIP); err != nil {
		switch {
		case errors.Is(err, models.ErrRateLimited):
			pkghttp.RedirectError(w, r, h.loginPath, models.MsgTooManyAttempts)
		case errors.Is(err, models.ErrUpstreamService):
			pkghttp.RedirectError(w, r, h.loginPath, models.MsgEmailSendFailed)
		default:
			pkghttp.RedirectError(w, r, h.loginPath, models.MsgPasswordResetFailed)
		}
		return
	}

	pkghttp.RedirectSuccess(w, r, h.loginPath, models.MsgPasswordResetSent)
}

// ResetPassword handles the reset-password form post (the forgot-password
// flow's second leg).
func (h *PasswordHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	h.completeReset(w, r, FormResetPassword, models.MsgPasswordUpdated)
}

// SetPassword handles the set-password form post reached from a
// registration confirmation.
func (h *PasswordHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	h.completeReset(w, r, FormSetPassword, models.MsgPasswordSet)
}

// ResetPasswordForm represents the reset/set password form fields
type ResetPasswordForm struct {
	Login string `validate:"required,email"`
	Key   string `validate:"required"`
	Pass1 string `validate:"required"`
	Pass2 string `validate:"required"`
}

func (h *PasswordHandler) completeReset(w http.ResponseWriter, r *http.Request, formName, successCode string) {
	if err := r.ParseForm(); err != nil {
		pkghttp.RedirectError(w, r, h.loginPath, models.MsgGenericError)
		return
	}

	form := ResetPasswordForm{
		Login: r.PostFormValue("login"),
		Key:   r.PostFormValue("key"),
		Pass1: r.PostFormValue("pass1"),
		Pass2: r.PostFormValue("pass2"),
	}
	if code := validationMessage(form); code != "" {
		pkghttp.RedirectError(w, r, h.loginPath, code)
		return
	}

	if !h.nonces.Verify(r.PostFormValue("nonce"), formName) {
		pkghttp.RedirectError(w, r, h.loginPath, models.MsgInvalidNonce)
		return
	}

	err := h.service.CompleteReset(r.Context(), services.CompleteResetInput{
		Email:           form.Login,
		Key:             form.Key,
		Password:        form.Pass1,
		PasswordConfirm: form.Pass2,
	})
	if err != nil {
		var validationErr *pkgauth.PasswordValidationError
		switch {
		case errors.Is(err, models.ErrPasswordMismatch):
			pkghttp.RedirectError(w, r, h.loginPath, models.MsgPasswordMismatch)
		case errors.As(err, &validationErr):
			pkghttp.RedirectError(w, r, h.loginPath, models.MsgWeakPassword)
		case errors.Is(err, models.ErrTokenInvalid):
			pkghttp.RedirectError(w, r, h.loginPath, models.MsgInvalidKey)
		default:
			pkghttp.RedirectError(w, r, h.loginPath, models.MsgPasswordResetFailed)
		}
		return
	}

	pkghttp.RedirectSuccess(w, r, h.loginPath, successCode)
}
