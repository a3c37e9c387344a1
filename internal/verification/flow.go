package verification

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/curbcycle/pickup-platform/internal/calendar"
	"github.com/curbcycle/pickup-platform/internal/handoff"
	"github.com/curbcycle/pickup-platform/internal/notify"
	"github.com/curbcycle/pickup-platform/internal/pricing"
	"github.com/curbcycle/pickup-platform/internal/observability/metrics"
	"github.com/curbcycle/pickup-platform/internal/profiles"
	"github.com/curbcycle/pickup-platform/internal/signup"
	"github.com/curbcycle/pickup-platform/pkg/logging"
)

// DefaultMaxAttempts caps wrong-code guesses per session.
const DefaultMaxAttempts = 5

var (
	// ErrCodeMismatch means the submitted code did not match.
	ErrCodeMismatch = errors.New("verification: code mismatch")
	// ErrTooManyAttempts means the session is locked out.
	ErrTooManyAttempts = errors.New("verification: too many attempts")
	// ErrNotAwaitingCode means the session is not expecting a code.
	ErrNotAwaitingCode = errors.New("verification: session not awaiting code")
	// ErrNotVerified means completion was requested before a successful check.
	ErrNotVerified = errors.New("verification: session not verified")
)

// Notifier delivers templated notifications.
type Notifier interface {
	Send(ctx context.Context, templateID string, rcpt notify.Recipient, data map[string]string) error
}

// Registrar persists a verified resident and their schedules.
type Registrar interface {
	RegisterSchedules(ctx context.Context, p profiles.Profile, schedules []profiles.ServiceSchedule) (uuid.UUID, error)
}

// FormStore reads the signup form state stashed earlier in the flow.
type FormStore interface {
	Get(ctx context.Context, sessionID, kind string, out any) error
	Delete(ctx context.Context, sessionID, kind string) error
}

// Flow drives a reminder signup from contact capture through code
// verification to a persisted profile.
type Flow struct {
	sessions    *SessionStore
	forms       FormStore
	registrar   Registrar
	notifier    Notifier
	metrics     *metrics.VerificationMetrics
	logger      *logging.Logger
	maxAttempts int
}

// NewFlow creates a verification flow.
func NewFlow(sessions *SessionStore, forms FormStore, registrar Registrar, notifier Notifier, m *metrics.VerificationMetrics, logger *logging.Logger) *Flow {
	if logger == nil {
		logger = logging.Default()
	}
	return &Flow{
		sessions:    sessions,
		forms:       forms,
		registrar:   registrar,
		notifier:    notifier,
		metrics:     m,
		logger:      logger,
		maxAttempts: DefaultMaxAttempts,
	}
}

// WithMaxAttempts overrides the wrong-code lockout threshold.
func (f *Flow) WithMaxAttempts(n int) *Flow {
	if n > 0 {
		f.maxAttempts = n
	}
	return f
}

// StartRequest carries the contact details for a new verification.
type StartRequest struct {
	SessionID string
	Name      string
	Email     string
	Phone     string
}

func (r StartRequest) validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return errors.New("verification: session id required")
	}
	if strings.TrimSpace(r.Email) == "" && strings.TrimSpace(r.Phone) == "" {
		return errors.New("verification: email or phone required")
	}
	return nil
}

// GenerateCode returns a random 6-digit code, zero padded.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("verification: generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Start creates an awaiting-code session and sends the code to the resident.
func (f *Flow) Start(ctx context.Context, req StartRequest) (*Session, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	code, err := GenerateCode()
	if err != nil {
		return nil, err
	}
	sess := &Session{
		SessionID: req.SessionID,
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Status:    StatusAwaitingCode,
		Code:      code,
		CreatedAt: time.Now().UTC(),
	}
	if err := f.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	if err := f.sendCode(ctx, sess); err != nil {
		// Undelivered code means the resident never left idle; keeping the
		// session would strand them in a state they cannot answer.
		if delErr := f.sessions.Delete(ctx, sess.SessionID); delErr != nil {
			f.logger.Error("verification: delete undelivered session", "error", delErr, "session_id", sess.SessionID)
		}
		return nil, err
	}
	f.logger.Info("verification: code sent", "session_id", sess.SessionID)
	return sess, nil
}

// Resend issues a fresh code for an awaiting session. The attempt counter
// resets with the new code.
func (f *Flow) Resend(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := f.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != StatusAwaitingCode {
		return nil, ErrNotAwaitingCode
	}
	code, err := GenerateCode()
	if err != nil {
		return nil, err
	}
	sess.Code = code
	sess.Attempts = 0
	if err := f.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	if err := f.sendCode(ctx, sess); err != nil {
		return nil, err
	}
	f.logger.Info("verification: code resent", "session_id", sessionID)
	return sess, nil
}

func (f *Flow) sendCode(ctx context.Context, sess *Session) error {
	rcpt := notify.Recipient{ID: sess.SessionID, Name: sess.Name, Email: sess.Email, Phone: sess.Phone}
	data := map[string]string{
		"Code":           sess.Code,
		"ExpiresMinutes": strconv.Itoa(int(f.sessions.TTL().Minutes())),
	}
	if err := f.notifier.Send(ctx, notify.TemplateVerificationCode, rcpt, data); err != nil {
		return fmt.Errorf("verification: deliver code: %w", err)
	}
	f.metrics.ObserveCodeSent()
	return nil
}

// Verify checks a submitted code. A mismatch burns one attempt; hitting the
// attempt cap locks the session until it expires.
func (f *Flow) Verify(ctx context.Context, sessionID, code string) (*Session, error) {
	sess, err := f.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != StatusAwaitingCode {
		return nil, ErrNotAwaitingCode
	}
	if sess.Attempts >= f.maxAttempts {
		f.metrics.ObserveAttempt("locked")
		return nil, ErrTooManyAttempts
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(sess.Code)) != 1 {
		sess.Attempts++
		if err := f.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
		if sess.Attempts >= f.maxAttempts {
			f.metrics.ObserveAttempt("locked")
			f.logger.Warn("verification: session locked", "session_id", sessionID)
			return nil, ErrTooManyAttempts
		}
		f.metrics.ObserveAttempt("mismatch")
		return nil, ErrCodeMismatch
	}
	sess.Status = StatusVerified
	if err := f.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	f.metrics.ObserveAttempt("verified")
	f.logger.Info("verification: code accepted", "session_id", sessionID)
	return sess, nil
}

// Complete persists the verified resident's profile and schedules, then
// tears the session down. Persistence failure leaves the session verified so
// completion can be retried.
func (f *Flow) Complete(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := f.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != StatusVerified {
		return nil, ErrNotVerified
	}

	var st signup.State
	if err := f.forms.Get(ctx, sessionID, handoff.KindFormState, &st); err != nil {
		if errors.Is(err, handoff.ErrNotFound) {
			return nil, fmt.Errorf("verification: no signup form for session %s: %w", sessionID, err)
		}
		return nil, err
	}

	c := signup.FromState(st)
	var schedules []profiles.ServiceSchedule
	var summary []string
	for _, sel := range c.Selections() {
		// Only fully specified selections become schedules: checked, with a
		// real cadence and a parseable pickup weekday.
		if !sel.Enabled || sel.Frequency == pricing.FrequencyNone {
			continue
		}
		if _, ok := calendar.ParseWeekday(sel.PickupDay); !ok {
			continue
		}
		schedules = append(schedules, profiles.ServiceSchedule{
			Service:   sel.Service,
			Frequency: sel.Frequency,
			Quantity:  sel.Quantity,
			PickupDay: sel.PickupDay,
		})
		summary = append(summary, fmt.Sprintf("- %s: %s on %s", sel.Service.Label(), sel.Frequency.Label(), sel.PickupDay))
	}

	profileID, err := f.registrar.RegisterSchedules(ctx, profiles.Profile{
		Name:  sess.Name,
		Email: sess.Email,
		Phone: sess.Phone,
	}, schedules)
	if err != nil {
		return nil, err
	}

	// Welcome delivery is best effort; the signup already succeeded.
	rcpt := notify.Recipient{ID: profileID.String(), Name: sess.Name, Email: sess.Email, Phone: sess.Phone}
	data := map[string]string{"ScheduleSummary": strings.Join(summary, "\n")}
	if err := f.notifier.Send(ctx, notify.TemplateWelcome, rcpt, data); err != nil {
		f.logger.Error("verification: welcome send failed", "error", err, "profile_id", profileID)
	}

	sess.Status = StatusCompleted
	if err := f.sessions.Delete(ctx, sessionID); err != nil {
		f.logger.Error("verification: delete session", "error", err, "session_id", sessionID)
	}
	if err := f.forms.Delete(ctx, sessionID, handoff.KindFormState); err != nil && !errors.Is(err, handoff.ErrNotFound) {
		f.logger.Error("verification: delete form state", "error", err, "session_id", sessionID)
	}
	f.logger.Info("verification: signup completed", "session_id", sessionID, "profile_id", profileID, "schedules", len(schedules))
	return sess, nil
}
