package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loginguard/internal/models"
	"loginguard/internal/services"
	pkghttp "loginguard/pkg/http"
)

func newRegistrationHandler(service RegistrationServiceInterface, challenge services.ChallengeVerifier) (*RegistrationHandler, func(string) string) {
	nonces := testNonceService()
	handler := NewRegistrationHandler(service, nonces, challenge, &pkghttp.IPConfig{}, "/account-login")
	return handler, nonces.Create
}

func TestRegisterHandler_Success(t *testing.T) {
	var got services.RegisterInput
	service := &MockRegistrationService{
		RegisterFunc: func(ctx context.Context, input services.RegisterInput) error {
			got = input
			return nil
		},
	}
	handler, nonce := newRegistrationHandler(service, nil)

	rec, req := postForm(t, "/register", url.Values{
		"email":      {"new@example.com"},
		"first_name": {"New"},
		"last_name":  {"User"},
		"nonce":      {nonce(FormRegister)},
	})
	handler.Register(rec, req)

	loc := redirectLocation(t, rec)
	assert.Equal(t, models.MsgConfirmationSent, loc.Query().Get("success"))
	assert.Equal(t, "new@example.com", got.Email)
	assert.Equal(t, "203.0.113.5", got.RemoteIP)
}

func TestRegisterHandler_ErrorCodes(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantCode   string
	}{
		{"disabled", models.ErrRegistrationDisabled, models.MsgRegistrationDisabled},
		{"duplicate", models.ErrDuplicateAccount, models.MsgEmailExists},
		{"rate limited", models.ErrRateLimited, models.MsgTooManyAttempts},
		{"verifier rejected", models.ErrInvalidInput, models.MsgInvalidEmail},
		{"disposable address", &models.EmailRejectedError{Reason: models.MsgEmailDisposable}, models.MsgEmailDisposable},
		{"role account", &models.EmailRejectedError{Reason: models.MsgEmailRoleAccount}, models.MsgEmailRoleAccount},
		{"send failed", models.ErrUpstreamService, models.MsgEmailSendFailed},
		{"creation failed", models.ErrAccountCreationFailed, models.MsgRegistrationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &MockRegistrationService{
				RegisterFunc: func(ctx context.Context, input services.RegisterInput) error {
					return tt.serviceErr
				},
			}
			handler, nonce := newRegistrationHandler(service, nil)

			rec, req := postForm(t, "/register", url.Values{
				"email":      {"new@example.com"},
				"first_name": {"New"},
				"nonce":      {nonce(FormRegister)},
			})
			handler.Register(rec, req)

			loc := redirectLocation(t, rec)
			assert.Equal(t, tt.wantCode, loc.Query().Get("error"))
		})
	}
}

func TestRegisterHandler_ChallengeRequired(t *testing.T) {
	serviceCalled := false
	service := &MockRegistrationService{
		RegisterFunc: func(ctx context.Context, input services.RegisterInput) error {
			serviceCalled = true
			return nil
		},
	}
	challenge := &MockChallengeVerifier{
		Forms: []string{FormRegister},
		VerifyChallengeFunc: func(ctx context.Context, token, remoteIP string) error {
			if token == "good-token" {
				return nil
			}
			return models.ErrSecurityCheckFailed
		},
	}
	handler, nonce := newRegistrationHandler(service, challenge)

	rec, req := postForm(t, "/register", url.Values{
		"email":      {"new@example.com"},
		"first_name": {"New"},
		"nonce":      {nonce(FormRegister)},
	})
	handler.Register(rec, req)

	loc := redirectLocation(t, rec)
	assert.Equal(t, models.MsgChallengeFailed, loc.Query().Get("error"))
	assert.False(t, serviceCalled)

	rec, req = postForm(t, "/register", url.Values{
		"email":                 {"new@example.com"},
		"first_name":            {"New"},
		"nonce":                 {nonce(FormRegister)},
		"cf-turnstile-response": {"good-token"},
	})
	handler.Register(rec, req)

	loc = redirectLocation(t, rec)
	assert.Equal(t, models.MsgConfirmationSent, loc.Query().Get("success"))
	assert.True(t, serviceCalled)
}

func TestRegisterHandler_BadNonce(t *testing.T) {
	handler, _ := newRegistrationHandler(&MockRegistrationService{}, nil)

	rec, req := postForm(t, "/register", url.Values{
		"email":      {"new@example.com"},
		"first_name": {"New"},
		"nonce":      {"forged"},
	})
	handler.Register(rec, req)

	loc := redirectLocation(t, rec)
	assert.Equal(t, models.MsgInvalidNonce, loc.Query().Get("error"))
}

func TestConfirmHandler_Success(t *testing.T) {
	service := &MockRegistrationService{
		ConfirmFunc: func(ctx context.Context, encodedToken string) (*services.ConfirmResult, error) {
			assert.Equal(t, "the-token", encodedToken)
			return &services.ConfirmResult{
				User:     &models.User{ID: "user123", Email: "new@example.com"},
				SetupKey: "setup-key",
			}, nil
		},
	}
	handler, _ := newRegistrationHandler(service, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/confirm?token=the-token", nil)
	handler.Confirm(rec, req)

	loc := redirectLocation(t, rec)
	require.Equal(t, "/account-login", loc.Path)
	assert.Equal(t, FormSetPassword, loc.Query().Get("action"))
	assert.Equal(t, "setup-key", loc.Query().Get("key"))
	assert.Equal(t, "new@example.com", loc.Query().Get("login"))
}

func TestConfirmHandler_TokenErrorsShareOneMessage(t *testing.T) {
	for _, serviceErr := range []error{models.ErrTokenInvalid, models.ErrTokenExpired} {
		service := &MockRegistrationService{
			ConfirmFunc: func(ctx context.Context, encodedToken string) (*services.ConfirmResult, error) {
				return nil, serviceErr
			},
		}
		handler, _ := newRegistrationHandler(service, nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/confirm?token=whatever", nil)
		handler.Confirm(rec, req)

		loc := redirectLocation(t, rec)
		assert.Equal(t, models.MsgConfirmationExpired, loc.Query().Get("error"))
	}
}

func TestConfirmHandler_MissingToken(t *testing.T) {
	handler, _ := newRegistrationHandler(&MockRegistrationService{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/confirm", nil)
	handler.Confirm(rec, req)

	loc := redirectLocation(t, rec)
	assert.Equal(t, models.MsgConfirmationExpired, loc.Query().Get("error"))
}
