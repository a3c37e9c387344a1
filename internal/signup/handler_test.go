package signup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curbcycle/pickup-platform/internal/handoff"
)

type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) key(sessionID, kind string) string {
	return kind + ":" + sessionID
}

func (s *memStore) Put(_ context.Context, sessionID, kind string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.data[s.key(sessionID, kind)] = b
	return nil
}

func (s *memStore) Get(_ context.Context, sessionID, kind string, out any) error {
	b, ok := s.data[s.key(sessionID, kind)]
	if !ok {
		return handoff.ErrNotFound
	}
	return json.Unmarshal(b, out)
}

func newTestHandler() (*Handler, *memStore) {
	store := newMemStore()
	return NewHandler(store, nil, nil), store
}

func startSession(t *testing.T, h *Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp formResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func postJSON(t *testing.T, h *Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestStartSessionReturnsDisabledForm(t *testing.T) {
	h, _ := newTestHandler()
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp formResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Selections, 3)
	for _, sel := range resp.Selections {
		assert.False(t, sel.Enabled)
		assert.Zero(t, sel.Quantity)
	}
	assert.Equal(t, int64(0), resp.Breakdown.TotalCents)
	assert.Equal(t, "$0.00", resp.FormattedTotal)
}

func TestToggleRepricesImmediately(t *testing.T) {
	h, _ := newTestHandler()
	id := startSession(t, h)

	rec := postJSON(t, h, "/"+id+"/toggle", `{"service":"trash","enabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp formResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// Base fee plus one weekly trash can.
	assert.Equal(t, int64(2900+1000), resp.Breakdown.TotalCents)
}

func TestQuantityAndFrequencyFlow(t *testing.T) {
	h, _ := newTestHandler()
	id := startSession(t, h)

	postJSON(t, h, "/"+id+"/toggle", `{"service":"recycling","enabled":true}`)
	postJSON(t, h, "/"+id+"/frequency", `{"service":"recycling","frequency":"biweekly"}`)
	rec := postJSON(t, h, "/"+id+"/quantity", `{"service":"recycling","op":"increment"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp formResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(2900+2*500), resp.Breakdown.TotalCents)
}

func TestQuoteIsStateless(t *testing.T) {
	h, _ := newTestHandler()
	id := startSession(t, h)
	postJSON(t, h, "/"+id+"/toggle", `{"service":"trash","enabled":true}`)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+id+"/quote", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp formResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(3900), resp.Breakdown.TotalCents)
	}
}

func TestUnknownSessionIs404(t *testing.T) {
	h, _ := newTestHandler()
	rec := postJSON(t, h, "/nope/toggle", `{"service":"trash","enabled":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBadPayloadsAre400(t *testing.T) {
	h, _ := newTestHandler()
	id := startSession(t, h)

	cases := []struct {
		path, body string
	}{
		{"/toggle", `{"service":"lawn","enabled":true}`},
		{"/frequency", `not json`},
		{"/quantity", `{"service":"trash","op":"double"}`},
		{"/pickup-day", `{"service":"","day":"Monday"}`},
	}
	for _, tc := range cases {
		rec := postJSON(t, h, "/"+id+tc.path, tc.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, fmt.Sprintf("%s %s", tc.path, tc.body))
	}
}

func TestSubmitRejectsInvalidForm(t *testing.T) {
	h, _ := newTestHandler()
	id := startSession(t, h)

	// Nothing enabled yet.
	rec := postJSON(t, h, "/"+id+"/submit", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp submitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Errors, "services")
}

func TestSubmitMissingPickupDay(t *testing.T) {
	h, _ := newTestHandler()
	id := startSession(t, h)
	postJSON(t, h, "/"+id+"/toggle", `{"service":"trash","enabled":true}`)

	rec := postJSON(t, h, "/"+id+"/submit", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp submitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, "trash.pickup_day")
}

func TestSubmitAcceptsCompleteForm(t *testing.T) {
	h, _ := newTestHandler()
	id := startSession(t, h)
	postJSON(t, h, "/"+id+"/toggle", `{"service":"trash","enabled":true}`)
	postJSON(t, h, "/"+id+"/pickup-day", `{"service":"trash","day":"Tuesday"}`)

	rec := postJSON(t, h, "/"+id+"/submit", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp submitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Empty(t, resp.Errors)
}
