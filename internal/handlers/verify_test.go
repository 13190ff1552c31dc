package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loginguard/internal/models"
	"loginguard/internal/services"
)

type stubVerifier struct {
	verdict services.Verdict
	err     error
}

func (s *stubVerifier) VerifyEmail(ctx context.Context, email string) (services.Verdict, error) {
	return s.verdict, s.err
}

func postVerify(t *testing.T, handler *VerifyHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/verify-email", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	handler.VerifyEmail(rec, req)
	return rec
}

func TestVerifyEmailHandler_Valid(t *testing.T) {
	handler := NewVerifyHandler(&stubVerifier{verdict: services.Verdict{Valid: true}})

	rec := postVerify(t, handler, `{"email":"user@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp VerifyEmailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Equal(t, "user@example.com", resp.Email)
}

func TestVerifyEmailHandler_Invalid(t *testing.T) {
	handler := NewVerifyHandler(&stubVerifier{verdict: services.Verdict{Reason: models.MsgEmailDisposable}})

	rec := postVerify(t, handler, `{"email":"bogus@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp VerifyEmailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.Equal(t, models.MessageText(models.MsgEmailDisposable), resp.Message)
}

func TestVerifyEmailHandler_DisabledPassesEverything(t *testing.T) {
	handler := NewVerifyHandler(nil)

	rec := postVerify(t, handler, `{"email":"anything@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp VerifyEmailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
}

func TestVerifyEmailHandler_UpstreamDown(t *testing.T) {
	handler := NewVerifyHandler(&stubVerifier{err: models.ErrUpstreamService})

	rec := postVerify(t, handler, `{"email":"user@example.com"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestVerifyEmailHandler_BadRequest(t *testing.T) {
	handler := NewVerifyHandler(&stubVerifier{verdict: services.Verdict{Valid: true}})

	assert.Equal(t, http.StatusBadRequest, postVerify(t, handler, `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, postVerify(t, handler, `{"email":"not-an-email"}`).Code)
}
