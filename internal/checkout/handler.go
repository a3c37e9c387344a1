package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/curbcycle/pickup-platform/internal/handoff"
	"github.com/curbcycle/pickup-platform/internal/observability/metrics"
	"github.com/curbcycle/pickup-platform/internal/signup"
	"github.com/curbcycle/pickup-platform/internal/subscriptions"
	"github.com/curbcycle/pickup-platform/pkg/logging"
)

// SessionCreator starts a hosted checkout for a priced signup.
type SessionCreator interface {
	CreateSession(ctx context.Context, params SessionParams) (*SessionResponse, error)
}

// FormStore reads and writes signup hand-off state.
type FormStore interface {
	Get(ctx context.Context, sessionID, kind string, out any) error
	Put(ctx context.Context, sessionID, kind string, v any) error
}

// SubscriptionStore records the pending subscription row and reads it back
// for the success page.
type SubscriptionStore interface {
	Insert(ctx context.Context, s *subscriptions.Subscription) error
	AttachStripeSession(ctx context.Context, id int64, stripeSessionID string) error
	GetBySession(ctx context.Context, sessionID string) (*subscriptions.Subscription, error)
}

// PendingUser is the contact capture stashed until payment confirms.
type PendingUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Handler exposes checkout over HTTP.
type Handler struct {
	stripe  SessionCreator
	store   FormStore
	subs    SubscriptionStore
	metrics *metrics.CheckoutMetrics
	logger  *logging.Logger
}

// NewHandler creates a checkout handler.
func NewHandler(stripe SessionCreator, store FormStore, subs SubscriptionStore, m *metrics.CheckoutMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{stripe: stripe, store: store, subs: subs, metrics: m, logger: logger}
}

// Routes mounts the checkout endpoint.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/{sessionID}", h.StartCheckout)
	r.Get("/{sessionID}", h.GetStatus)
	return r
}

type checkoutResponse struct {
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

// StartCheckout validates the form, records a pending subscription, and
// returns the Stripe redirect URL.
func (h *Handler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req PendingUser
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		http.Error(w, "name and email required", http.StatusBadRequest)
		return
	}

	var st signup.State
	err := h.store.Get(r.Context(), sessionID, handoff.KindFormState, &st)
	if errors.Is(err, handoff.ErrNotFound) {
		http.Error(w, "unknown signup session", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("checkout: load form state", "error", err, "session_id", sessionID)
		http.Error(w, "could not load form state", http.StatusInternalServerError)
		return
	}

	c := signup.FromState(st)
	if problems := c.Validate(); problems != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": problems})
		return
	}
	breakdown := c.Quote()

	// Stash contact details so verification can pick them up after payment.
	if err := h.store.Put(r.Context(), sessionID, handoff.KindPendingUser, req); err != nil {
		h.logger.Error("checkout: stash pending user", "error", err, "session_id", sessionID)
		http.Error(w, "could not start checkout", http.StatusInternalServerError)
		return
	}

	var services []string
	for _, sel := range c.Selections() {
		if sel.Enabled {
			services = append(services, string(sel.Service))
		}
	}
	sub := &subscriptions.Subscription{
		SessionID:  sessionID,
		Email:      req.Email,
		Services:   services,
		TotalCents: breakdown.TotalCents,
	}
	if err := h.subs.Insert(r.Context(), sub); err != nil {
		h.logger.Error("checkout: insert pending subscription", "error", err, "session_id", sessionID)
		http.Error(w, "could not start checkout", http.StatusInternalServerError)
		return
	}

	resp, err := h.stripe.CreateSession(r.Context(), SessionParams{
		SignupSessionID: sessionID,
		Email:           req.Email,
		Breakdown:       breakdown,
	})
	if err != nil {
		var ce *CheckoutError
		if errors.As(err, &ce) {
			h.metrics.ObserveSession("rejected")
			writeJSON(w, http.StatusBadGateway, checkoutResponse{Error: ce.Message})
			return
		}
		h.metrics.ObserveSession("error")
		h.logger.Error("checkout: create stripe session", "error", err, "session_id", sessionID)
		writeJSON(w, http.StatusBadGateway, checkoutResponse{Error: friendlyMessage("unknown")})
		return
	}

	if err := h.subs.AttachStripeSession(r.Context(), sub.ID, resp.ProviderID); err != nil {
		// The hosted session already exists; failing here would only push
		// the resident into creating a duplicate one.
		h.logger.Error("checkout: attach stripe session", "error", err, "session_id", sessionID, "provider_id", resp.ProviderID)
	}

	h.metrics.ObserveSession("created")
	writeJSON(w, http.StatusOK, checkoutResponse{URL: resp.URL})
}

type statusResponse struct {
	SessionID  string `json:"session_id"`
	Status     string `json:"status"`
	TotalCents int64  `json:"total_cents"`
}

// GetStatus reports the subscription state for a signup session. The success
// page polls this after the Stripe redirect.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sub, err := h.subs.GetBySession(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("checkout: load subscription", "error", err, "session_id", sessionID)
		http.Error(w, "could not load checkout status", http.StatusInternalServerError)
		return
	}
	if sub == nil {
		http.Error(w, "unknown checkout session", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		SessionID:  sub.SessionID,
		Status:     sub.Status,
		TotalCents: sub.TotalCents,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
