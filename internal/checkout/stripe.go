package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/curbcycle/pickup-platform/internal/pricing"
	"github.com/curbcycle/pickup-platform/pkg/logging"
)

var stripeTracer = otel.Tracer("curbcycle.internal.checkout.stripe")

// StripeCheckoutService creates Stripe Checkout Sessions for the first
// month's service charge.
type StripeCheckoutService struct {
	secretKey  string
	successURL string
	cancelURL  string
	baseURL    string
	apiVersion string
	httpClient *http.Client
	logger     *logging.Logger
	dryRun     bool
}

// NewStripeCheckoutService creates a new Stripe checkout service.
func NewStripeCheckoutService(secretKey, successURL, cancelURL string, logger *logging.Logger) *StripeCheckoutService {
	if logger == nil {
		logger = logging.Default()
	}
	dryRun := strings.EqualFold(os.Getenv("STRIPE_DRY_RUN"), "true") || os.Getenv("STRIPE_DRY_RUN") == "1"
	return &StripeCheckoutService{
		secretKey:  secretKey,
		successURL: successURL,
		cancelURL:  cancelURL,
		baseURL:    "https://api.stripe.com",
		apiVersion: "2024-12-18.acacia",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		dryRun:     dryRun,
	}
}

// WithBaseURL overrides the Stripe API base URL (for testing).
func (s *StripeCheckoutService) WithBaseURL(baseURL string) *StripeCheckoutService {
	if baseURL != "" {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
	return s
}

// WithDryRun enables dry-run mode (returns fake URLs without calling Stripe).
func (s *StripeCheckoutService) WithDryRun(enabled bool) *StripeCheckoutService {
	s.dryRun = enabled
	return s
}

// SessionParams carries what Stripe needs for one checkout.
type SessionParams struct {
	SignupSessionID string
	Email           string
	Breakdown       pricing.Breakdown
}

// SessionResponse is the redirect target plus Stripe's session id.
type SessionResponse struct {
	URL        string
	ProviderID string
}

// CheckoutError is a Stripe failure translated to resident-facing copy.
type CheckoutError struct {
	Code    string
	Message string
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("checkout: stripe %s: %s", e.Code, e.Message)
}

// friendlyMessage maps Stripe error codes to copy shown on the signup page.
func friendlyMessage(code string) string {
	switch code {
	case "card_declined":
		return "Your card was declined. Please try a different payment method."
	case "rate_limit":
		return "We're experiencing high traffic. Please try again in a moment."
	default:
		return "Something went wrong starting checkout. Please try again."
	}
}

// CreateSession creates a Stripe Checkout Session covering the base fee and
// every chargeable service line.
func (s *StripeCheckoutService) CreateSession(ctx context.Context, params SessionParams) (*SessionResponse, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.create_checkout_session")
	defer span.End()
	span.SetAttributes(
		attribute.String("curbcycle.session_id", params.SignupSessionID),
		attribute.Int("curbcycle.total_cents", int(params.Breakdown.TotalCents)),
	)

	if params.Breakdown.TotalCents <= 0 {
		return nil, &CheckoutError{Code: "empty_cart", Message: "Select at least one service before checking out."}
	}

	if s.dryRun {
		fakeID := "cs_dryrun_" + uuid.New().String()[:8]
		s.logger.Info("stripe dry run: skipping checkout session creation",
			"session_id", params.SignupSessionID, "total_cents", params.Breakdown.TotalCents)
		return &SessionResponse{
			URL:        fmt.Sprintf("https://checkout.stripe.com/dry-run/%s", fakeID),
			ProviderID: fakeID,
		}, nil
	}

	form := url.Values{}
	form.Set("mode", "payment")
	if s.successURL != "" {
		form.Set("success_url", s.successURL)
	}
	if s.cancelURL != "" {
		form.Set("cancel_url", s.cancelURL)
	}
	if params.Email != "" {
		form.Set("customer_email", params.Email)
	}

	idx := 0
	if params.Breakdown.BaseFeeCents > 0 {
		setLineItem(form, idx, "Monthly base service fee", params.Breakdown.BaseFeeCents, 1)
		idx++
	}
	for _, li := range params.Breakdown.LineItems {
		setLineItem(form, idx, li.Label, li.UnitPriceCents, li.Quantity)
		idx++
	}

	form.Set("metadata[session_id]", params.SignupSessionID)
	form.Set("payment_intent_data[metadata][session_id]", params.SignupSessionID)

	apiURL := s.baseURL + "/v1/checkout/sessions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("checkout: stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Stripe-Version", s.apiVersion)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checkout: stripe http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		code := readStripeErrorCode(resp.Body)
		s.logger.Error("stripe rejected checkout session", "status", resp.StatusCode, "code", code, "session_id", params.SignupSessionID)
		return nil, &CheckoutError{Code: code, Message: friendlyMessage(code)}
	}

	var parsed stripeCheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("checkout: stripe decode: %w", err)
	}
	if parsed.URL == "" {
		return nil, fmt.Errorf("checkout: stripe response missing checkout url")
	}

	s.logger.Info("stripe checkout session created", "session_id", params.SignupSessionID, "provider_id", parsed.ID)
	return &SessionResponse{URL: parsed.URL, ProviderID: parsed.ID}, nil
}

func setLineItem(form url.Values, idx int, name string, unitAmountCents int64, quantity int) {
	prefix := fmt.Sprintf("line_items[%d]", idx)
	form.Set(prefix+"[price_data][currency]", "usd")
	form.Set(prefix+"[price_data][unit_amount]", fmt.Sprintf("%d", unitAmountCents))
	form.Set(prefix+"[price_data][product_data][name]", name)
	form.Set(prefix+"[quantity]", fmt.Sprintf("%d", quantity))
}

// stripeCheckoutSession is the subset of Stripe's Checkout Session we need.
type stripeCheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// stripeErrorResponse represents a Stripe API error.
type stripeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func readStripeErrorCode(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil {
		return "unknown"
	}
	var parsed stripeErrorResponse
	if err := json.Unmarshal(data, &parsed); err != nil || parsed.Error.Code == "" {
		if parsed.Error.Type != "" {
			return parsed.Error.Type
		}
		return "unknown"
	}
	return parsed.Error.Code
}
