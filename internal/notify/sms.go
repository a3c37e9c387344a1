package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/curbcycle/pickup-platform/pkg/logging"
)

// SMSSender sends SMS messages to residents.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// RESTSMSConfig configures the hosted SMS provider client.
type RESTSMSConfig struct {
	BaseURL    string
	APIKey     string
	FromNumber string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// RESTSMSSender sends SMS through the provider's REST messages endpoint.
type RESTSMSSender struct {
	baseURL    string
	apiKey     string
	fromNumber string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewRESTSMSSender creates an SMS sender. Returns nil when no API key is
// configured so callers can fall back to a stub.
func NewRESTSMSSender(cfg RESTSMSConfig, logger *logging.Logger) *RESTSMSSender {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &RESTSMSSender{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		fromNumber: cfg.FromNumber,
		httpClient: httpClient,
		logger:     logger,
	}
}

type smsError struct {
	StatusCode int    `json:"-"`
	Title      string `json:"title,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

func (e *smsError) Error() string {
	if e.Title != "" {
		return fmt.Sprintf("notify: sms provider: %s (status=%d)", e.Title, e.StatusCode)
	}
	if e.Detail != "" {
		return fmt.Sprintf("notify: sms provider: %s (status=%d)", e.Detail, e.StatusCode)
	}
	return fmt.Sprintf("notify: sms provider status %d", e.StatusCode)
}

// SendSMS posts a message to the provider.
func (s *RESTSMSSender) SendSMS(ctx context.Context, to, body string) error {
	if strings.TrimSpace(to) == "" {
		return errors.New("notify: sms recipient required")
	}
	payload, err := json.Marshal(struct {
		From string `json:"from"`
		To   string `json:"to"`
		Text string `json:"text"`
	}{From: s.fromNumber, To: to, Text: body})
	if err != nil {
		return fmt.Errorf("notify: marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: build sms request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: sms http error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("notify: read sms response: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		s.logger.Info("sms sent", "to", to, "status", resp.StatusCode)
		return nil
	}

	apiErr := &smsError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(data, apiErr); err != nil {
		apiErr.Detail = string(data)
	}
	s.logger.Error("sms provider rejected send", "error", apiErr, "to", to)
	return apiErr
}

// StubSMSSender is a no-op sender for testing.
type StubSMSSender struct {
	logger *logging.Logger
}

// NewStubSMSSender creates a stub SMS sender.
func NewStubSMSSender(logger *logging.Logger) *StubSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSMSSender{logger: logger}
}

// SendSMS logs but doesn't send.
func (s *StubSMSSender) SendSMS(ctx context.Context, to, body string) error {
	s.logger.Info("stub SMS sender: would send", "to", to, "body_preview", truncate(body, 50))
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var _ SMSSender = (*RESTSMSSender)(nil)
var _ SMSSender = (*StubSMSSender)(nil)
