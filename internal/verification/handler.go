package verification

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/curbcycle/pickup-platform/pkg/logging"
)

// Handler exposes the verification flow over HTTP.
type Handler struct {
	flow   *Flow
	logger *logging.Logger
}

// NewHandler creates a verification handler.
func NewHandler(flow *Flow, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{flow: flow, logger: logger}
}

// Routes mounts the verification endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Post("/start", h.Start)
		r.Post("/verify", h.Verify)
		r.Post("/resend", h.Resend)
		r.Post("/complete", h.Complete)
	})
	return r
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Status    Status `json:"status"`
}

type verifyResponse struct {
	SessionID         string `json:"session_id"`
	Status            Status `json:"status"`
	Error             string `json:"error,omitempty"`
	AttemptsRemaining *int   `json:"attempts_remaining,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Start begins verification for a signup session.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	sess, err := h.flow.Start(r.Context(), StartRequest{
		SessionID: chi.URLParam(r, "sessionID"),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		h.logger.Error("verification: start failed", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: sess.SessionID, Status: sess.Status})
}

// Verify checks a submitted code.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		http.Error(w, "code required", http.StatusBadRequest)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := h.flow.Verify(r.Context(), sessionID, req.Code)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, verifyResponse{SessionID: sessionID, Status: sess.Status})
	case errors.Is(err, ErrSessionNotFound):
		http.Error(w, "verification session expired", http.StatusNotFound)
	case errors.Is(err, ErrCodeMismatch):
		remaining := h.flow.maxAttempts
		if s, loadErr := h.flow.sessions.Load(r.Context(), sessionID); loadErr == nil {
			remaining = h.flow.maxAttempts - s.Attempts
		}
		writeJSON(w, http.StatusUnprocessableEntity, verifyResponse{
			SessionID:         sessionID,
			Status:            StatusAwaitingCode,
			Error:             "That code didn't match. Check the latest message and try again.",
			AttemptsRemaining: &remaining,
		})
	case errors.Is(err, ErrTooManyAttempts):
		writeJSON(w, http.StatusTooManyRequests, verifyResponse{
			SessionID: sessionID,
			Status:    StatusAwaitingCode,
			Error:     "Too many attempts. Request a new code and try again.",
		})
	case errors.Is(err, ErrNotAwaitingCode):
		http.Error(w, "session is not awaiting a code", http.StatusConflict)
	default:
		h.logger.Error("verification: verify failed", "error", err, "session_id", sessionID)
		http.Error(w, "verification failed", http.StatusInternalServerError)
	}
}

// Resend issues a fresh code.
func (h *Handler) Resend(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := h.flow.Resend(r.Context(), sessionID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, sessionResponse{SessionID: sessionID, Status: sess.Status})
	case errors.Is(err, ErrSessionNotFound):
		http.Error(w, "verification session expired", http.StatusNotFound)
	case errors.Is(err, ErrNotAwaitingCode):
		http.Error(w, "session is not awaiting a code", http.StatusConflict)
	default:
		h.logger.Error("verification: resend failed", "error", err, "session_id", sessionID)
		http.Error(w, "resend failed", http.StatusInternalServerError)
	}
}

// Complete persists the verified signup.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := h.flow.Complete(r.Context(), sessionID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, sessionResponse{SessionID: sessionID, Status: sess.Status})
	case errors.Is(err, ErrSessionNotFound):
		http.Error(w, "verification session expired", http.StatusNotFound)
	case errors.Is(err, ErrNotVerified):
		http.Error(w, "verify your code before completing signup", http.StatusConflict)
	default:
		h.logger.Error("verification: complete failed", "error", err, "session_id", sessionID)
		http.Error(w, "could not complete signup", http.StatusInternalServerError)
	}
}
