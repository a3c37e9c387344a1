package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRESTSMSSenderSends(t *testing.T) {
	var got struct {
		From string `json:"from"`
		To   string `json:"to"`
		Text string `json:"text"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewRESTSMSSender(RESTSMSConfig{
		BaseURL:    srv.URL,
		APIKey:     "key-123",
		FromNumber: "+15550000",
	}, nil)
	require.NotNil(t, s)

	err := s.SendSMS(context.Background(), "+15550100", "cans out by 7 AM")
	require.NoError(t, err)
	assert.Equal(t, "+15550000", got.From)
	assert.Equal(t, "+15550100", got.To)
	assert.Equal(t, "cans out by 7 AM", got.Text)
}

func TestRESTSMSSenderProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"title":"invalid destination"}`))
	}))
	defer srv.Close()

	s := NewRESTSMSSender(RESTSMSConfig{BaseURL: srv.URL, APIKey: "k"}, nil)
	err := s.SendSMS(context.Background(), "+1555", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid destination")
}

func TestRESTSMSSenderRequiresRecipient(t *testing.T) {
	s := NewRESTSMSSender(RESTSMSConfig{BaseURL: "http://example.invalid", APIKey: "k"}, nil)
	assert.Error(t, s.SendSMS(context.Background(), "  ", "hi"))
}

func TestNewRESTSMSSenderWithoutKeyIsNil(t *testing.T) {
	assert.Nil(t, NewRESTSMSSender(RESTSMSConfig{BaseURL: "http://example.invalid"}, nil))
}
