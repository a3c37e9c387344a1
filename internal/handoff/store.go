package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/curbcycle/pickup-platform/pkg/logging"
)

// Kinds of short-lived state stashed between signup pages.
const (
	KindAddressCheck = "address_check"
	KindFormState    = "form_state"
	KindPendingUser  = "pending_user"
)

// ErrNotFound is returned when no value is stashed under the key.
var ErrNotFound = errors.New("handoff: not found")

// Store keeps short-lived JSON blobs keyed by signup session. It replaces the
// browser-local storage hand-off of the original site: address check results,
// pending user data, pending schedules, and restorable form state all live
// here with a TTL, read-modify-write, single writer per session.
type Store struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewStore creates a hand-off store.
func NewStore(client *redis.Client, ttl time.Duration, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{redis: client, ttl: ttl, logger: logger}
}

func key(sessionID, kind string) string {
	return fmt.Sprintf("handoff:%s:%s", sessionID, kind)
}

// Put stashes a value under (session, kind), refreshing the TTL.
func (s *Store) Put(ctx context.Context, sessionID, kind string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("handoff: marshal %s: %w", kind, err)
	}
	if err := s.redis.Set(ctx, key(sessionID, kind), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("handoff: set %s: %w", kind, err)
	}
	return nil
}

// Get loads the value stashed under (session, kind) into out.
func (s *Store) Get(ctx context.Context, sessionID, kind string, out any) error {
	data, err := s.redis.Get(ctx, key(sessionID, kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("handoff: get %s: %w", kind, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("handoff: unmarshal %s: %w", kind, err)
	}
	return nil
}

// Delete removes the value stashed under (session, kind).
func (s *Store) Delete(ctx context.Context, sessionID, kind string) error {
	if err := s.redis.Del(ctx, key(sessionID, kind)).Err(); err != nil {
		return fmt.Errorf("handoff: del %s: %w", kind, err)
	}
	return nil
}
