package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"loginguard/internal/models"
	"loginguard/internal/services"
	pkghttp "loginguard/pkg/http"
)

// VerifyHandler serves the AJAX email-verification endpoint the registration
// form calls before submitting.
type VerifyHandler struct {
	verifier services.EmailVerifier
}

// NewVerifyHandler creates a new VerifyHandler. verifier may be nil when
// verification is disabled, in which case every address passes.
func NewVerifyHandler(verifier services.EmailVerifier) *VerifyHandler {
	return &VerifyHandler{verifier: verifier}
}

// VerifyEmailRequest represents the request body for email verification
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyEmailResponse represents the verification verdict. Message carries
// the human-readable rejection reason for invalid addresses.
type VerifyEmailResponse struct {
	Email   string `json:"email"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// VerifyEmail handles POST /verify-email
func (h *VerifyHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		pkghttp.WriteBadRequest(w, "A valid email address is required")
		return
	}

	resp := VerifyEmailResponse{Email: req.Email, Valid: true}

	if h.verifier != nil {
		verdict, err := h.verifier.VerifyEmail(r.Context(), req.Email)
		if err != nil {
			if errors.Is(err, models.ErrUpstreamService) {
				pkghttp.WriteError(w, http.StatusBadGateway, "verification_unavailable", "Email verification is temporarily unavailable")
				return
			}
			pkghttp.WriteInternalError(w, "Internal server error")
			return
		}
		resp.Valid = verdict.Valid
		if !verdict.Valid {
			resp.Message = models.MessageText(verdict.Reason)
		}
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}
