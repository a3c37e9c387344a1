package signup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/curbcycle/pickup-platform/internal/handoff"
	"github.com/curbcycle/pickup-platform/internal/observability/metrics"
	"github.com/curbcycle/pickup-platform/internal/pricing"
	"github.com/curbcycle/pickup-platform/pkg/logging"
)

// FormStore persists form state between signup pages.
type FormStore interface {
	Put(ctx context.Context, sessionID, kind string, v any) error
	Get(ctx context.Context, sessionID, kind string, out any) error
}

// Handler exposes the service-schedule form over HTTP. State lives in the
// hand-off store keyed by signup session; every mutation returns the
// recomputed pricing so the page can redisplay it immediately.
type Handler struct {
	store   FormStore
	logger  *logging.Logger
	metrics *metrics.SignupMetrics
}

// NewHandler creates a signup form handler.
func NewHandler(store FormStore, m *metrics.SignupMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger, metrics: m}
}

// Routes mounts the signup endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.StartSession)
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Get("/quote", h.GetQuote)
		r.Post("/toggle", h.ToggleService)
		r.Post("/frequency", h.ChangeFrequency)
		r.Post("/quantity", h.StepQuantity)
		r.Post("/pickup-day", h.SetPickupDay)
		r.Post("/submit", h.Submit)
	})
	return r
}

type formResponse struct {
	SessionID      string              `json:"session_id"`
	Selections     []pricing.Selection `json:"selections"`
	Breakdown      pricing.Breakdown   `json:"breakdown"`
	FormattedTotal string              `json:"formatted_total"`
}

// StartSession creates a fresh signup session with every service disabled.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.NewString()
	c := NewController()
	if err := h.store.Put(r.Context(), sessionID, handoff.KindFormState, c.State()); err != nil {
		h.logger.Error("signup: persist new session", "error", err)
		http.Error(w, "could not start signup", http.StatusInternalServerError)
		return
	}
	h.metrics.ObserveSessionStarted()
	h.logger.Info("signup: session started", "session_id", sessionID)
	h.writeForm(w, sessionID, c)
}

func (h *Handler) loadController(ctx context.Context, sessionID string) (*Controller, error) {
	var st State
	if err := h.store.Get(ctx, sessionID, handoff.KindFormState, &st); err != nil {
		return nil, err
	}
	return FromState(st), nil
}

func (h *Handler) saveAndRespond(w http.ResponseWriter, r *http.Request, sessionID string, c *Controller) {
	if err := h.store.Put(r.Context(), sessionID, handoff.KindFormState, c.State()); err != nil {
		h.logger.Error("signup: persist session", "error", err, "session_id", sessionID)
		http.Error(w, "could not save form state", http.StatusInternalServerError)
		return
	}
	h.writeForm(w, sessionID, c)
}

func (h *Handler) writeForm(w http.ResponseWriter, sessionID string, c *Controller) {
	b := c.Quote()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(formResponse{
		SessionID:      sessionID,
		Selections:     c.Selections(),
		Breakdown:      b,
		FormattedTotal: b.FormattedTotal(),
	})
}

func (h *Handler) withController(w http.ResponseWriter, r *http.Request, fn func(c *Controller) bool) {
	sessionID := chi.URLParam(r, "sessionID")
	c, err := h.loadController(r.Context(), sessionID)
	if errors.Is(err, handoff.ErrNotFound) {
		http.Error(w, "unknown signup session", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("signup: load session", "error", err, "session_id", sessionID)
		http.Error(w, "could not load form state", http.StatusInternalServerError)
		return
	}
	if !fn(c) {
		return
	}
	h.saveAndRespond(w, r, sessionID, c)
}

// GetQuote returns the current selections and pricing without mutating.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	c, err := h.loadController(r.Context(), sessionID)
	if errors.Is(err, handoff.ErrNotFound) {
		http.Error(w, "unknown signup session", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "could not load form state", http.StatusInternalServerError)
		return
	}
	h.writeForm(w, sessionID, c)
}

// ToggleService enables or disables a service stream.
func (h *Handler) ToggleService(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Service pricing.ServiceType `json:"service"`
		Enabled bool                `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Service.Valid() {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	h.withController(w, r, func(c *Controller) bool {
		c.ToggleService(req.Service, req.Enabled)
		return true
	})
}

// ChangeFrequency sets a service cadence.
func (h *Handler) ChangeFrequency(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Service   pricing.ServiceType `json:"service"`
		Frequency string              `json:"frequency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Service.Valid() {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	h.withController(w, r, func(c *Controller) bool {
		c.ChangeFrequency(req.Service, pricing.ParseFrequency(req.Frequency))
		return true
	})
}

// StepQuantity increments or decrements the can stepper.
func (h *Handler) StepQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Service pricing.ServiceType `json:"service"`
		Op      string              `json:"op"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Service.Valid() {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.Op != "increment" && req.Op != "decrement" {
		http.Error(w, "op must be increment or decrement", http.StatusBadRequest)
		return
	}
	h.withController(w, r, func(c *Controller) bool {
		if req.Op == "increment" {
			c.IncrementQuantity(req.Service)
		} else {
			c.DecrementQuantity(req.Service)
		}
		return true
	})
}

// SetPickupDay records the weekday for a service.
func (h *Handler) SetPickupDay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Service pricing.ServiceType `json:"service"`
		Day     string              `json:"day"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Service.Valid() {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	h.withController(w, r, func(c *Controller) bool {
		c.SetPickupDay(req.Service, req.Day)
		return true
	})
}

type submitResponse struct {
	OK     bool              `json:"ok"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Submit validates the form. Violations block submission with field-keyed
// messages and no state mutation.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	c, err := h.loadController(r.Context(), sessionID)
	if errors.Is(err, handoff.ErrNotFound) {
		http.Error(w, "unknown signup session", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "could not load form state", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if problems := c.Validate(); problems != nil {
		h.metrics.ObserveSubmit("rejected")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(submitResponse{OK: false, Errors: problems})
		return
	}
	h.metrics.ObserveSubmit("accepted")
	h.logger.Info("signup: form submitted", "session_id", sessionID)
	_ = json.NewEncoder(w).Encode(submitResponse{OK: true})
}
