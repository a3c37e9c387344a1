package subscriptions

import "time"

// Subscription statuses.
const (
	StatusPending  = "pending"
	StatusPaid     = "paid"
	StatusCanceled = "canceled"
)

// Subscription is one household's paid service plan, created when checkout
// starts and settled when payment confirms.
type Subscription struct {
	ID              int64     `json:"id"`
	SessionID       string    `json:"session_id"`
	Email           string    `json:"email"`
	Services        []string  `json:"services"`
	TotalCents      int64     `json:"total_cents"`
	Status          string    `json:"status"`
	StripeSessionID string    `json:"stripe_session_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
