package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when no profile matches the lookup.
var ErrNotFound = errors.New("profiles: not found")

// Querier is the subset of pgx a single statement needs. A pool or an open
// transaction both satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxPool is the pool surface the store depends on.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists resident profiles and their service schedules in Postgres.
type Store struct {
	pool PgxPool
}

// NewStore creates a store backed by pool.
func NewStore(pool PgxPool) *Store {
	if pool == nil {
		return nil
	}
	return &Store{pool: pool}
}

// Begin opens a transaction for multi-statement writes.
func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	return s.pool.Begin(ctx)
}

// UpsertProfile inserts or refreshes a profile keyed by email and returns
// the row id.
func (s *Store) UpsertProfile(ctx context.Context, q Querier, p Profile) (uuid.UUID, error) {
	if q == nil {
		q = s.pool
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	query := `
		INSERT INTO profiles (id, name, email, phone, address_line, zip)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email)
		DO UPDATE SET name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			address_line = EXCLUDED.address_line,
			zip = EXCLUDED.zip,
			updated_at = now()
		RETURNING id
	`
	var id uuid.UUID
	err := q.QueryRow(ctx, query, p.ID, p.Name, p.Email, p.Phone, p.AddressLine, p.Zip).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("profiles: upsert profile: %w", err)
	}
	return id, nil
}

// GetByEmail loads a profile by its email address.
func (s *Store) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	query := `
		SELECT id, name, email, phone, address_line, zip, created_at, updated_at
		FROM profiles
		WHERE email = $1
	`
	var p Profile
	err := s.pool.QueryRow(ctx, query, email).Scan(
		&p.ID, &p.Name, &p.Email, &p.Phone, &p.AddressLine, &p.Zip, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profiles: get by email: %w", err)
	}
	return &p, nil
}

// UpsertServiceSchedule inserts or refreshes one service stream for a
// profile, keyed by (profile_id, service_type).
func (s *Store) UpsertServiceSchedule(ctx context.Context, q Querier, sched ServiceSchedule) error {
	if q == nil {
		q = s.pool
	}
	if sched.ID == uuid.Nil {
		sched.ID = uuid.New()
	}
	query := `
		INSERT INTO service_schedules (id, profile_id, service_type, frequency, quantity, pickup_day)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (profile_id, service_type)
		DO UPDATE SET frequency = EXCLUDED.frequency,
			quantity = EXCLUDED.quantity,
			pickup_day = EXCLUDED.pickup_day,
			updated_at = now()
	`
	_, err := q.Exec(ctx, query, sched.ID, sched.ProfileID, string(sched.Service), string(sched.Frequency), sched.Quantity, sched.PickupDay)
	if err != nil {
		return fmt.Errorf("profiles: upsert schedule: %w", err)
	}
	return nil
}

// DeleteSchedulesExcept removes schedules for services the resident no longer
// has enabled.
func (s *Store) DeleteSchedulesExcept(ctx context.Context, q Querier, profileID uuid.UUID, keep []string) error {
	if q == nil {
		q = s.pool
	}
	query := `
		DELETE FROM service_schedules
		WHERE profile_id = $1 AND service_type <> ALL($2)
	`
	if _, err := q.Exec(ctx, query, profileID, keep); err != nil {
		return fmt.Errorf("profiles: delete stale schedules: %w", err)
	}
	return nil
}

// ListSchedules returns every schedule for a profile.
func (s *Store) ListSchedules(ctx context.Context, profileID uuid.UUID) ([]ServiceSchedule, error) {
	query := `
		SELECT id, profile_id, service_type, frequency, quantity, pickup_day
		FROM service_schedules
		WHERE profile_id = $1
		ORDER BY service_type
	`
	rows, err := s.pool.Query(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("profiles: list schedules: %w", err)
	}
	defer rows.Close()

	var out []ServiceSchedule
	for rows.Next() {
		var sched ServiceSchedule
		if err := rows.Scan(&sched.ID, &sched.ProfileID, &sched.Service, &sched.Frequency, &sched.Quantity, &sched.PickupDay); err != nil {
			return nil, fmt.Errorf("profiles: scan schedule: %w", err)
		}
		out = append(out, sched)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("profiles: iterate schedules: %w", err)
	}
	return out, nil
}

// ListDueReminders returns every schedule whose pickup day matches weekday,
// joined with its profile's contact details.
func (s *Store) ListDueReminders(ctx context.Context, weekday string) ([]ReminderCandidate, error) {
	query := `
		SELECT ss.id, p.id, p.name, p.email, p.phone, ss.service_type, ss.pickup_day
		FROM service_schedules ss
		JOIN profiles p ON p.id = ss.profile_id
		WHERE ss.pickup_day = $1
		ORDER BY p.email, ss.service_type
	`
	rows, err := s.pool.Query(ctx, query, weekday)
	if err != nil {
		return nil, fmt.Errorf("profiles: list due reminders: %w", err)
	}
	defer rows.Close()

	var out []ReminderCandidate
	for rows.Next() {
		var rc ReminderCandidate
		if err := rows.Scan(&rc.ScheduleID, &rc.ProfileID, &rc.Name, &rc.Email, &rc.Phone, &rc.Service, &rc.PickupDay); err != nil {
			return nil, fmt.Errorf("profiles: scan reminder candidate: %w", err)
		}
		out = append(out, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("profiles: iterate reminder candidates: %w", err)
	}
	return out, nil
}

// AlreadyLogged reports whether a reminder for this schedule and service date
// was already recorded.
func (s *Store) AlreadyLogged(ctx context.Context, scheduleID uuid.UUID, serviceDate time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM reminder_logs
			WHERE schedule_id = $1 AND service_date = $2
		)
	`
	var exists bool
	if err := s.pool.QueryRow(ctx, query, scheduleID, serviceDate).Scan(&exists); err != nil {
		return false, fmt.Errorf("profiles: check reminder log: %w", err)
	}
	return exists, nil
}

// RegisterSchedules upserts the profile and its service schedules in one
// transaction, pruning schedules for services no longer selected.
func (s *Store) RegisterSchedules(ctx context.Context, p Profile, schedules []ServiceSchedule) (uuid.UUID, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("profiles: begin register: %w", err)
	}
	defer tx.Rollback(ctx)

	profileID, err := s.UpsertProfile(ctx, tx, p)
	if err != nil {
		return uuid.Nil, err
	}

	keep := make([]string, 0, len(schedules))
	for _, sched := range schedules {
		sched.ProfileID = profileID
		if err := s.UpsertServiceSchedule(ctx, tx, sched); err != nil {
			return uuid.Nil, err
		}
		keep = append(keep, string(sched.Service))
	}
	if err := s.DeleteSchedulesExcept(ctx, tx, profileID, keep); err != nil {
		return uuid.Nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("profiles: commit register: %w", err)
	}
	return profileID, nil
}

// InsertReminderLog records a sent reminder so the worker never doubles up.
func (s *Store) InsertReminderLog(ctx context.Context, q Querier, scheduleID uuid.UUID, serviceDate time.Time, channel string) error {
	if q == nil {
		q = s.pool
	}
	query := `
		INSERT INTO reminder_logs (id, schedule_id, service_date, channel)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (schedule_id, service_date) DO NOTHING
	`
	if _, err := q.Exec(ctx, query, uuid.New(), scheduleID, serviceDate, channel); err != nil {
		return fmt.Errorf("profiles: insert reminder log: %w", err)
	}
	return nil
}
