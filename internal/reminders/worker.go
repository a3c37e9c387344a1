// Package reminders sends the night-before pickup reminder for every
// schedule whose pickup day is tomorrow. A reminder log row per schedule
// and service date keeps the worker idempotent across runs.
package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/curbcycle/pickup-platform/internal/notify"
	"github.com/curbcycle/pickup-platform/internal/observability/metrics"
	"github.com/curbcycle/pickup-platform/internal/profiles"
	"github.com/curbcycle/pickup-platform/pkg/logging"
)

// Directory lists due schedules and tracks what was already sent.
type Directory interface {
	ListDueReminders(ctx context.Context, weekday string) ([]profiles.ReminderCandidate, error)
	AlreadyLogged(ctx context.Context, scheduleID uuid.UUID, serviceDate time.Time) (bool, error)
	InsertReminderLog(ctx context.Context, q profiles.Querier, scheduleID uuid.UUID, serviceDate time.Time, channel string) error
}

// Notifier delivers templated notifications.
type Notifier interface {
	Send(ctx context.Context, templateID string, rcpt notify.Recipient, data map[string]string) error
}

// Summary reports one processing pass.
type Summary struct {
	ServiceDate string `json:"service_date"`
	Due         int    `json:"due"`
	Sent        int    `json:"sent"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
}

// Worker drives reminder delivery.
type Worker struct {
	dir      Directory
	notifier Notifier
	metrics  *metrics.ReminderMetrics
	logger   *logging.Logger
	interval time.Duration
	now      func() time.Time
}

// NewWorker creates a reminder worker.
func NewWorker(dir Directory, notifier Notifier, m *metrics.ReminderMetrics, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		dir:      dir,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		interval: time.Hour,
		now:      time.Now,
	}
}

// WithInterval overrides the polling interval.
func (w *Worker) WithInterval(d time.Duration) *Worker {
	if d > 0 {
		w.interval = d
	}
	return w
}

// WithClock overrides the time source for tests.
func (w *Worker) WithClock(now func() time.Time) *Worker {
	if now != nil {
		w.now = now
	}
	return w
}

// Run polls until the context is canceled. One pass runs immediately.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if _, err := w.ProcessDue(ctx); err != nil {
		w.logger.Error("reminders: initial pass failed", "error", err)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.ProcessDue(ctx); err != nil {
				w.logger.Error("reminders: pass failed", "error", err)
			}
		}
	}
}

// ProcessDue sends reminders for every schedule picking up tomorrow.
func (w *Worker) ProcessDue(ctx context.Context) (Summary, error) {
	tomorrow := w.now().UTC().AddDate(0, 0, 1)
	serviceDate := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.UTC)
	weekday := serviceDate.Weekday().String()

	summary := Summary{ServiceDate: serviceDate.Format("2006-01-02")}
	due, err := w.dir.ListDueReminders(ctx, weekday)
	if err != nil {
		return summary, fmt.Errorf("reminders: list due: %w", err)
	}
	summary.Due = len(due)

	for _, cand := range due {
		logged, err := w.dir.AlreadyLogged(ctx, cand.ScheduleID, serviceDate)
		if err != nil {
			w.logger.Error("reminders: check log", "error", err, "schedule_id", cand.ScheduleID)
			summary.Failed++
			continue
		}
		if logged {
			w.metrics.ObserveSkipped()
			summary.Skipped++
			continue
		}

		rcpt := notify.Recipient{ID: cand.ProfileID.String(), Name: cand.Name, Email: cand.Email, Phone: cand.Phone}
		data := map[string]string{
			"Service":    cand.Service.Label(),
			"PickupDate": serviceDate.Format("Monday, Jan 2"),
		}
		if err := w.notifier.Send(ctx, notify.TemplatePickupReminder, rcpt, data); err != nil {
			w.logger.Error("reminders: send failed", "error", err, "schedule_id", cand.ScheduleID)
			summary.Failed++
			continue
		}

		channel := deliveryChannel(cand)
		if err := w.dir.InsertReminderLog(ctx, nil, cand.ScheduleID, serviceDate, channel); err != nil {
			w.logger.Error("reminders: record log", "error", err, "schedule_id", cand.ScheduleID)
			summary.Failed++
			continue
		}
		w.metrics.ObserveSent(channel)
		summary.Sent++
	}

	w.logger.Info("reminders: pass complete",
		"service_date", summary.ServiceDate, "due", summary.Due,
		"sent", summary.Sent, "skipped", summary.Skipped, "failed", summary.Failed)
	return summary, nil
}

func deliveryChannel(c profiles.ReminderCandidate) string {
	switch {
	case c.Email != "" && c.Phone != "":
		return "email+sms"
	case c.Phone != "":
		return "sms"
	default:
		return "email"
	}
}
