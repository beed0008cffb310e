package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	livepoll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Session associates a browser with an authenticated user. Stored as JSON
// under session:{id} with a TTL refreshed on activity.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore keeps sessions in Redis.
type SessionStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewSessionStore(client *goredis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func sessionKey(id uuid.UUID) string {
	return fmt.Sprintf("session:%s", id.String())
}

// Create stores a new session for the user and returns it.
func (s *SessionStore) Create(ctx context.Context, userID uuid.UUID, username string) (Session, error) {
	session := Session{
		ID:        uuid.New(),
		UserID:    userID,
		Username:  username,
		CreatedAt: time.Now(),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return Session{}, err
	}
	if err := s.client.Set(ctx, sessionKey(session.ID), data, s.ttl).Err(); err != nil {
		return Session{}, err
	}
	return session, nil
}

// Get retrieves a session. A missing or expired session is ErrNotFound.
func (s *SessionStore) Get(ctx context.Context, id uuid.UUID) (Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Result()
	if err == goredis.Nil {
		return Session{}, livepoll_errors.ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}

	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return Session{}, err
	}
	return session, nil
}

// Refresh extends the session TTL (call on activity).
func (s *SessionStore) Refresh(ctx context.Context, id uuid.UUID) error {
	return s.client.Expire(ctx, sessionKey(id), s.ttl).Err()
}

// Delete removes a session. Deleting an absent session is not an error.
func (s *SessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}

// Ping checks if Redis is available.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
