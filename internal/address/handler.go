package address

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/curbcycle/pickup-platform/internal/handoff"
	"github.com/curbcycle/pickup-platform/pkg/logging"
)

// ResultStore remembers the check outcome for the rest of the signup flow.
type ResultStore interface {
	Put(ctx context.Context, sessionID, kind string, v any) error
}

// Handler exposes the service-area check over HTTP.
type Handler struct {
	checker *Checker
	store   ResultStore
	logger  *logging.Logger
}

// NewHandler creates an address handler.
func NewHandler(checker *Checker, store ResultStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{checker: checker, store: store, logger: logger}
}

// Routes mounts the address endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/check", h.Check)
	return r
}

// Check resolves a ZIP and, when a session is supplied, records the result
// so later steps can refuse out-of-area signups.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Zip       string `json:"zip"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Zip) == "" {
		http.Error(w, "zip required", http.StatusBadRequest)
		return
	}

	result := h.checker.Check(req.Zip)
	if req.SessionID != "" && h.store != nil {
		if err := h.store.Put(r.Context(), req.SessionID, handoff.KindAddressCheck, result); err != nil {
			h.logger.Error("address: persist check result", "error", err, "session_id", req.SessionID)
		}
	}
	h.logger.Info("address checked", "zip", result.Zip, "in_area", result.InArea)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}
