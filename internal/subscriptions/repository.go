package subscriptions

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Repository persists subscription rows over database/sql.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a subscription repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert creates a pending subscription and fills in its id.
func (r *Repository) Insert(ctx context.Context, s *Subscription) error {
	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO subscriptions (session_id, email, services, total_cents, status, stripe_session_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING id`,
		s.SessionID, s.Email, pq.Array(s.Services), s.TotalCents, StatusPending, s.StripeSessionID, now).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("subscriptions: insert: %w", err)
	}
	s.Status = StatusPending
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

// AttachStripeSession records the provider's checkout session on a row.
// MarkPaid later keys on this id.
func (r *Repository) AttachStripeSession(ctx context.Context, id int64, stripeSessionID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions SET stripe_session_id = $1, updated_at = now()
		WHERE id = $2`,
		stripeSessionID, id)
	if err != nil {
		return fmt.Errorf("subscriptions: attach stripe session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("subscriptions: attach stripe session rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("subscriptions: no subscription %d", id)
	}
	return nil
}

// MarkPaid flips a subscription to paid, keyed by the Stripe session.
func (r *Repository) MarkPaid(ctx context.Context, stripeSessionID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions SET status = $1, updated_at = now()
		WHERE stripe_session_id = $2 AND status = $3`,
		StatusPaid, stripeSessionID, StatusPending)
	if err != nil {
		return fmt.Errorf("subscriptions: mark paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("subscriptions: mark paid rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("subscriptions: no pending subscription for stripe session %s", stripeSessionID)
	}
	return nil
}

// GetBySession loads a subscription by signup session id. Returns nil when
// none exists.
func (r *Repository) GetBySession(ctx context.Context, sessionID string) (*Subscription, error) {
	var s Subscription
	err := r.db.QueryRowContext(ctx, `
		SELECT id, session_id, email, services, total_cents, status, stripe_session_id, created_at, updated_at
		FROM subscriptions WHERE session_id = $1`, sessionID).Scan(
		&s.ID, &s.SessionID, &s.Email, pq.Array(&s.Services), &s.TotalCents, &s.Status, &s.StripeSessionID, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("subscriptions: get by session: %w", err)
	}
	if s.Services == nil {
		s.Services = []string{}
	}
	return &s, nil
}

// List returns subscriptions, optionally filtered by status, newest first.
func (r *Repository) List(ctx context.Context, status string) ([]Subscription, error) {
	query := `
		SELECT id, session_id, email, services, total_cents, status, stripe_session_id, created_at, updated_at
		FROM subscriptions`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("subscriptions: list: %w", err)
	}
	defer rows.Close()

	var out []Subscription
	for rows.Next() {
		var s Subscription
		if err := rows.Scan(&s.ID, &s.SessionID, &s.Email, pq.Array(&s.Services), &s.TotalCents, &s.Status, &s.StripeSessionID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("subscriptions: scan: %w", err)
		}
		if s.Services == nil {
			s.Services = []string{}
		}
		out = append(out, s)
	}
	if out == nil {
		out = []Subscription{}
	}
	return out, rows.Err()
}
