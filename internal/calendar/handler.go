package calendar

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/curbcycle/pickup-platform/pkg/logging"
)

// Handler serves month grids for the site's date-picker widget.
type Handler struct {
	logger *logging.Logger
	now    func() time.Time
}

// NewHandler creates a calendar handler.
func NewHandler(logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{logger: logger, now: time.Now}
}

// WithClock overrides the time source (for testing).
func (h *Handler) WithClock(now func() time.Time) *Handler {
	if now != nil {
		h.now = now
	}
	return h
}

type gridResponse struct {
	DefaultDate string    `json:"default_date"`
	Grid        MonthGrid `json:"grid"`
}

// GetGrid renders the grid for ?weekday, optionally at ?year / ?month.
// Without an explicit month it shows the month of the first available date.
func (h *Handler) GetGrid(w http.ResponseWriter, r *http.Request) {
	weekday := r.URL.Query().Get("weekday")

	p := NewPicker(h.now(), weekday)
	defaultDate := *p.Selected()

	p.Open()
	if yearStr, monthStr := r.URL.Query().Get("year"), r.URL.Query().Get("month"); yearStr != "" && monthStr != "" {
		year, errY := strconv.Atoi(yearStr)
		month, errM := strconv.Atoi(monthStr)
		if errY != nil || errM != nil || month < 1 || month > 12 {
			http.Error(w, "invalid year or month", http.StatusBadRequest)
			return
		}
		visYear, visMonth := p.VisibleMonth()
		delta := (year-visYear)*12 + (month - int(visMonth))
		p.Navigate(delta)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(gridResponse{
		DefaultDate: defaultDate.Format("2006-01-02"),
		Grid:        p.Grid(),
	})
}
