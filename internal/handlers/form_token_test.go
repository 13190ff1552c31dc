package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getFormToken(t *testing.T, handler *FormTokenHandler, form string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/form-token?form="+form, nil)
	handler.FormToken(rec, req)
	return rec
}

func TestFormTokenHandler_IssuesVerifiableNonce(t *testing.T) {
	nonces := testNonceService()
	handler := NewFormTokenHandler(nonces, nil, "")

	rec := getFormToken(t, handler, FormLogin)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FormTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, FormLogin, resp.Form)
	assert.True(t, nonces.Verify(resp.Nonce, FormLogin))
	assert.False(t, nonces.Verify(resp.Nonce, FormRegister))
	assert.Empty(t, resp.TurnstileSiteKey)
}

func TestFormTokenHandler_IncludesSiteKeyWhenChallenged(t *testing.T) {
	handler := NewFormTokenHandler(testNonceService(),
		&MockChallengeVerifier{Forms: []string{FormRegister}}, "site-key-123")

	var resp FormTokenResponse
	rec := getFormToken(t, handler, FormRegister)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "site-key-123", resp.TurnstileSiteKey)

	rec = getFormToken(t, handler, FormLogin)
	resp = FormTokenResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.TurnstileSiteKey)
}

func TestFormTokenHandler_UnknownForm(t *testing.T) {
	handler := NewFormTokenHandler(testNonceService(), nil, "")

	assert.Equal(t, http.StatusBadRequest, getFormToken(t, handler, "profile").Code)
	assert.Equal(t, http.StatusBadRequest, getFormToken(t, handler, "").Code)
}
