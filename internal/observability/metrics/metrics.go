// Package metrics defines the Prometheus instruments for the pickup
// platform. All Observe* methods are nil-safe so call sites never have
// to guard against a disabled registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "curbcycle"

// SignupMetrics counts signup form sessions and submissions.
type SignupMetrics struct {
	sessionsStarted prometheus.Counter
	submits         *prometheus.CounterVec
}

// NewSignupMetrics registers the signup counters on reg.
func NewSignupMetrics(reg prometheus.Registerer) *SignupMetrics {
	m := &SignupMetrics{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signup",
			Name:      "sessions_started_total",
			Help:      "Signup form sessions created.",
		}),
		submits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signup",
			Name:      "submits_total",
			Help:      "Signup form submissions by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.sessionsStarted, m.submits)
	return m
}

func (m *SignupMetrics) ObserveSessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

func (m *SignupMetrics) ObserveSubmit(outcome string) {
	if m == nil {
		return
	}
	m.submits.WithLabelValues(outcome).Inc()
}

// VerificationMetrics counts verification codes and attempts.
type VerificationMetrics struct {
	codesSent prometheus.Counter
	attempts  *prometheus.CounterVec
}

// NewVerificationMetrics registers the verification counters on reg.
func NewVerificationMetrics(reg prometheus.Registerer) *VerificationMetrics {
	m := &VerificationMetrics{
		codesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verification",
			Name:      "codes_sent_total",
			Help:      "Verification codes sent, including resends.",
		}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verification",
			Name:      "attempts_total",
			Help:      "Verification code attempts by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.codesSent, m.attempts)
	return m
}

func (m *VerificationMetrics) ObserveCodeSent() {
	if m == nil {
		return
	}
	m.codesSent.Inc()
}

func (m *VerificationMetrics) ObserveAttempt(outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(outcome).Inc()
}

// ReminderMetrics counts pickup reminder deliveries.
type ReminderMetrics struct {
	sent    *prometheus.CounterVec
	skipped prometheus.Counter
}

// NewReminderMetrics registers the reminder counters on reg.
func NewReminderMetrics(reg prometheus.Registerer) *ReminderMetrics {
	m := &ReminderMetrics{
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminders",
			Name:      "sent_total",
			Help:      "Pickup reminders sent by channel.",
		}, []string{"channel"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminders",
			Name:      "skipped_total",
			Help:      "Reminder sends skipped because a log row already existed.",
		}),
	}
	reg.MustRegister(m.sent, m.skipped)
	return m
}

func (m *ReminderMetrics) ObserveSent(channel string) {
	if m == nil {
		return
	}
	m.sent.WithLabelValues(channel).Inc()
}

func (m *ReminderMetrics) ObserveSkipped() {
	if m == nil {
		return
	}
	m.skipped.Inc()
}

// CheckoutMetrics counts checkout session creation.
type CheckoutMetrics struct {
	sessions *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout counters on reg.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	m := &CheckoutMetrics{
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "sessions_total",
			Help:      "Stripe checkout sessions by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.sessions)
	return m
}

func (m *CheckoutMetrics) ObserveSession(outcome string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(outcome).Inc()
}
