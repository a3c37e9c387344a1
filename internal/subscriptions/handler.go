package subscriptions

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/curbcycle/pickup-platform/pkg/logging"
)

// Handler exposes admin subscription listing.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a subscriptions admin handler.
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Routes mounts the admin subscription endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/mark-paid", h.MarkPaid)
	return r
}

type markPaidRequest struct {
	StripeSessionID string `json:"stripe_session_id"`
}

// MarkPaid flips a pending subscription to paid once the operator confirms
// the payment in the Stripe dashboard.
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	var req markPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.StripeSessionID) == "" {
		http.Error(w, "stripe_session_id required", http.StatusBadRequest)
		return
	}

	if err := h.repo.MarkPaid(r.Context(), req.StripeSessionID); err != nil {
		h.logger.Warn("subscriptions: mark paid failed", "error", err, "stripe_session_id", req.StripeSessionID)
		http.Error(w, "no pending subscription for that session", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": StatusPaid})
}

// List returns subscriptions, optionally filtered by ?status=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", StatusPending, StatusPaid, StatusCanceled:
	default:
		http.Error(w, "unknown status filter", http.StatusBadRequest)
		return
	}

	subs, err := h.repo.List(r.Context(), status)
	if err != nil {
		h.logger.Error("subscriptions: list failed", "error", err)
		http.Error(w, "could not list subscriptions", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"subscriptions": subs})
}
