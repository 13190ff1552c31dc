package handlers

import (
	"net/http"

	"loginguard/internal/auth"
	"loginguard/internal/services"
	pkghttp "loginguard/pkg/http"
)

// FormTokenHandler issues the per-form nonce the branded pages embed in
// their forms before posting.
type FormTokenHandler struct {
	nonces           *auth.NonceService
	challenge        services.ChallengeVerifier
	turnstileSiteKey string
}

// NewFormTokenHandler creates a new FormTokenHandler
func NewFormTokenHandler(nonces *auth.NonceService, challenge services.ChallengeVerifier, turnstileSiteKey string) *FormTokenHandler {
	return &FormTokenHandler{
		nonces:           nonces,
		challenge:        challenge,
		turnstileSiteKey: turnstileSiteKey,
	}
}

// FormTokenResponse carries a fresh nonce for one form, plus the Turnstile
// site key when that form requires the challenge widget.
type FormTokenResponse struct {
	Form             string `json:"form"`
	Nonce            string `json:"nonce"`
	TurnstileSiteKey string `json:"turnstile_site_key,omitempty"`
}

// FormToken handles GET /form-token?form=...
func (h *FormTokenHandler) FormToken(w http.ResponseWriter, r *http.Request) {
	form := r.URL.Query().Get("form")
	if !knownForms[form] {
		pkghttp.WriteBadRequest(w, "Unknown form")
		return
	}

	resp := FormTokenResponse{
		Form:  form,
		Nonce: h.nonces.Create(form),
	}

	if h.challenge != nil && h.challenge.AppliesTo(form) {
		resp.TurnstileSiteKey = h.turnstileSiteKey
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}
