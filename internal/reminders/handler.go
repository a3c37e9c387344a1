package reminders

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/curbcycle/pickup-platform/pkg/logging"
)

// Handler exposes an admin endpoint to run a reminder pass on demand.
type Handler struct {
	worker *Worker
	logger *logging.Logger
}

// NewHandler creates a reminders admin handler.
func NewHandler(worker *Worker, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{worker: worker, logger: logger}
}

// Routes mounts the admin reminder endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/run", h.RunNow)
	return r
}

// RunNow executes one processing pass and reports the counts.
func (h *Handler) RunNow(w http.ResponseWriter, r *http.Request) {
	summary, err := h.worker.ProcessDue(r.Context())
	if err != nil {
		h.logger.Error("reminders: manual run failed", "error", err)
		http.Error(w, "reminder run failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summary)
}
