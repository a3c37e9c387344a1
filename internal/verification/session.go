package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "verify:"

// Status is where a verification session sits in its lifecycle.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusAwaitingCode Status = "awaiting_code"
	StatusVerified     Status = "verified"
	StatusCompleted    Status = "completed"
)

// Session is the transient state of one reminder-signup verification.
type Session struct {
	SessionID string    `json:"session_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Status    Status    `json:"status"`
	Code      string    `json:"code"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrSessionNotFound is returned when the session has expired or never existed.
var ErrSessionNotFound = errors.New("verification: session not found")

// SessionStore keeps verification sessions in Redis with a TTL so abandoned
// signups clean themselves up.
type SessionStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewSessionStore creates a session store.
func NewSessionStore(redisClient *redis.Client, ttl time.Duration) *SessionStore {
	if redisClient == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SessionStore{redis: redisClient, ttl: ttl}
}

// TTL reports the configured session lifetime.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// Save writes the session and resets its TTL.
func (s *SessionStore) Save(ctx context.Context, sess *Session) error {
	if sess.SessionID == "" {
		return errors.New("verification: session id required")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("verification: marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(sess.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("verification: save session: %w", err)
	}
	return nil
}

// Load reads a session by id.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("verification: load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("verification: unmarshal session: %w", err)
	}
	return &sess, nil
}

// Delete removes a session once the flow completes.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("verification: delete session: %w", err)
	}
	return nil
}
