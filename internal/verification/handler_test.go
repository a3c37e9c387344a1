package verification

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postTo(h *Handler, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestHandlerStartAndVerify(t *testing.T) {
	fx := newFlowFixture(t)
	h := NewHandler(fx.flow, nil)

	rec := postTo(h, "/s1/start", `{"name":"Pat","email":"pat@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var started sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	assert.Equal(t, StatusAwaitingCode, started.Status)

	rec = postTo(h, "/s1/verify", `{"code":"`+fx.notifier.lastCode()+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var verified verifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verified))
	assert.Equal(t, StatusVerified, verified.Status)
}

func TestHandlerVerifyMismatchReportsAttemptsRemaining(t *testing.T) {
	fx := newFlowFixture(t)
	h := NewHandler(fx.flow, nil)

	postTo(h, "/s1/start", `{"email":"pat@example.com"}`)
	wrong := "000000"
	if wrong == fx.notifier.lastCode() {
		wrong = "000001"
	}

	rec := postTo(h, "/s1/verify", `{"code":"`+wrong+`"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp verifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.AttemptsRemaining)
	assert.Equal(t, DefaultMaxAttempts-1, *resp.AttemptsRemaining)
}

func TestHandlerVerifyUnknownSession(t *testing.T) {
	fx := newFlowFixture(t)
	h := NewHandler(fx.flow, nil)

	rec := postTo(h, "/missing/verify", `{"code":"123456"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerCompleteBeforeVerify(t *testing.T) {
	fx := newFlowFixture(t)
	h := NewHandler(fx.flow, nil)

	fx.seedForm(t, "s1")
	postTo(h, "/s1/start", `{"email":"pat@example.com"}`)

	rec := postTo(h, "/s1/complete", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerResendThenComplete(t *testing.T) {
	fx := newFlowFixture(t)
	h := NewHandler(fx.flow, nil)

	fx.seedForm(t, "s1")
	postTo(h, "/s1/start", `{"email":"pat@example.com"}`)

	rec := postTo(h, "/s1/resend", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postTo(h, "/s1/verify", `{"code":"`+fx.notifier.lastCode()+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postTo(h, "/s1/complete", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusCompleted, resp.Status)
}
