package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"loginguard/internal/auth"
	"loginguard/internal/models"
	"loginguard/internal/services"
)

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc           func(ctx context.Context, input services.LoginInput) (*services.LoginResult, error)
	ValidateSessionFunc func(ctx context.Context, token string) (*models.User, error)
}

func (m *MockAuthService) Login(ctx context.Context, input services.LoginInput) (*services.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, input)
	}
	return nil, nil
}

func (m *MockAuthService) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	if m.ValidateSessionFunc != nil {
		return m.ValidateSessionFunc(ctx, token)
	}
	return nil, models.ErrInvalidCredentials
}

// MockRegistrationService implements RegistrationServiceInterface for testing
type MockRegistrationService struct {
	RegisterFunc func(ctx context.Context, input services.RegisterInput) error
	ConfirmFunc  func(ctx context.Context, encodedToken string) (*services.ConfirmResult, error)
}

func (m *MockRegistrationService) Register(ctx context.Context, input services.RegisterInput) error {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, input)
	}
	return nil
}

func (m *MockRegistrationService) Confirm(ctx context.Context, encodedToken string) (*services.ConfirmResult, error) {
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, encodedToken)
	}
	return nil, nil
}

// MockPasswordService implements PasswordServiceInterface for testing
type MockPasswordService struct {
	ForgotPasswordFunc func(ctx context.Context, email, remoteIP string) error
	CompleteResetFunc  func(ctx context.Context, input services.CompleteResetInput) error
}

func (m *MockPasswordService) ForgotPassword(ctx context.Context, email, remoteIP string) error {
	if m.ForgotPasswordFunc != nil {
		return m.ForgotPasswordFunc(ctx, email, remoteIP)
	}
	return nil
}

func (m *MockPasswordService) CompleteReset(ctx context.Context, input services.CompleteResetInput) error {
	if m.CompleteResetFunc != nil {
		return m.CompleteResetFunc(ctx, input)
	}
	return nil
}

// MockChallengeVerifier implements services.ChallengeVerifier for testing
type MockChallengeVerifier struct {
	VerifyChallengeFunc func(ctx context.Context, token, remoteIP string) error
	Forms               []string
}

func (m *MockChallengeVerifier) VerifyChallenge(ctx context.Context, token, remoteIP string) error {
	if m.VerifyChallengeFunc != nil {
		return m.VerifyChallengeFunc(ctx, token, remoteIP)
	}
	return nil
}

func (m *MockChallengeVerifier) AppliesTo(form string) bool {
	for _, f := range m.Forms {
		if f == form {
			return true
		}
	}
	return false
}

// testNonceService returns a real nonce service so handlers exercise the
// genuine verification path.
func testNonceService() *auth.NonceService {
	return auth.NewNonceService("handler-test-nonce-secret", 24*time.Hour)
}

// postForm builds a form POST request and recorder
func postForm(t *testing.T, path string, values url.Values) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "203.0.113.5:50000"
	return httptest.NewRecorder(), req
}

// redirectLocation parses the redirect target of a 303 response
func redirectLocation(t *testing.T, rec *httptest.ResponseRecorder) *url.URL {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	return loc
}
