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

// AuthServiceInterface defines the interface for login business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, input services.LoginInput) (*services.LoginResult, error)
	ValidateSession(ctx context.Context, token string) (*models.User, error)
}

// AuthHandler handles the login and logout form posts
type AuthHandler struct {
	service       AuthServiceInterface
	nonces        *auth.NonceService
	cookies       auth.CookieConfig
	ipConfig      *pkghttp.IPConfig
	loginPath     string
	loginRedirect string
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, nonces *auth.NonceService, cookies auth.CookieConfig, ipConfig *pkghttp.IPConfig, loginPath, loginRedirect string) *AuthHandler {
	return &AuthHandler{
		service:       service,
		nonces:        nonces,
		cookies:       cookies,
		ipConfig:      ipConfig,
		loginPath:     loginPath,
		loginRedirect: loginRedirect,
	}
}

// LoginForm represents the login form fields
type LoginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Login handles the login form post. Every failure shape redirects back to
// the login page with a message code; success sets the session cookie and
// redirects onward.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		pkghttp.RedirectError(w, r, h.loginPath, models.MsgGenericError)
		return
	}

	form := LoginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	if code := validationMessage(form); code != "" {
		pkghttp.RedirectError(w, r, h.loginPath, code)
		return
	}

	if !h.nonces.Verify(r.PostFormValue("nonce"), FormLogin) {
		pkghttp.RedirectError(w, r, h.loginPath, models.MsgInvalidNonce)
		return
	}

	remember := r.PostFormValue("remember") != ""

	result, err := h.service.Login(r.Context(), services.LoginInput{
		Email:    form.Email,
		Password: form.Password,
		Remember: remember,
		RemoteIP: pkghttp.ExtractClientIP(r, h.ipConfig),
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrRateLimited):
			pkghttp.RedirectError(w, r, h.loginPath, models.MsgTooManyAttempts)
		case errors.Is(err, models.ErrInvalidCredentials):
			pkghttp.RedirectError(w, r, h.loginPath, models.MsgLoginFailed)
		default:
			pkghttp.RedirectError(w, r, h.loginPath, models.MsgGenericError)
		}
		return
	}

	auth.SetSessionCookie(w, result.Token, result.Lifetime, h.cookies)

	target := safeRedirectTarget(r.PostFormValue("redirect_to"), h.loginRedirect)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Logout clears the session cookie and bounces back to the login page. It
// works without a valid session: clearing an absent cookie is harmless.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.cookies)
	pkghttp.RedirectSuccess(w, r, h.loginPath, models.MsgLoggedOut)
}

// SessionResponse represents the current session
type SessionResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// Session handles GET /session. The front end polls it to decide whether to
// render the logged-in state. An expired or tampered cookie is cleared so
// the browser stops resending it.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	token, err := auth.GetSessionCookie(r)
	if err != nil {
		pkghttp.WriteUnauthorized(w, "Not logged in")
		return
	}

	user, err := h.service.ValidateSession(r.Context(), token)
	if err != nil {
		auth.ClearSessionCookie(w, h.cookies)
		pkghttp.WriteUnauthorized(w, "Not logged in")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, SessionResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	})
}
