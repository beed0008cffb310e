package services

import (
	"context"
	"sync"
	"time"

	"livepoll/internal/domain/poll"
	"livepoll/internal/domain/user"
	"livepoll/internal/redis"
	livepoll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]user.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return livepoll_errors.ErrAlreadyExists
		}
	}
	r.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.User{}, livepoll_errors.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return user.User{}, livepoll_errors.ErrNotFound
}

type votePair struct {
	pollID uuid.UUID
	userID uuid.UUID
}

type fakePollRepo struct {
	mu    sync.Mutex
	polls map[uuid.UUID]*poll.Poll
	voted map[votePair]struct{}
}

func newFakePollRepo() *fakePollRepo {
	return &fakePollRepo{
		polls: make(map[uuid.UUID]*poll.Poll),
		voted: make(map[votePair]struct{}),
	}
}

func (r *fakePollRepo) Create(ctx context.Context, p *poll.Poll) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	clone.Options = append([]poll.Option(nil), p.Options...)
	r.polls[p.ID] = &clone
	return nil
}

func (r *fakePollRepo) GetByID(ctx context.Context, id uuid.UUID) (poll.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.polls[id]
	if !ok {
		return poll.Poll{}, livepoll_errors.ErrNotFound
	}
	clone := *p
	clone.Options = append([]poll.Option(nil), p.Options...)
	return clone, nil
}

func (r *fakePollRepo) ListAll(ctx context.Context) ([]poll.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []poll.Poll
	for _, p := range r.polls {
		clone := *p
		clone.Options = append([]poll.Option(nil), p.Options...)
		out = append(out, clone)
	}
	return out, nil
}

func (r *fakePollRepo) IncrementOption(ctx context.Context, pollID uuid.UUID, answer string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.polls[pollID]
	if !ok {
		return livepoll_errors.ErrNotFound
	}
	for i := range p.Options {
		if p.Options[i].Answer == answer {
			p.Options[i].Votes++
			return nil
		}
	}
	return livepoll_errors.ErrNotFound
}

func (r *fakePollRepo) GetOptions(ctx context.Context, pollID uuid.UUID) ([]poll.Option, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.polls[pollID]
	if !ok {
		return nil, livepoll_errors.ErrNotFound
	}
	return append([]poll.Option(nil), p.Options...), nil
}

func (r *fakePollRepo) MarkVoted(ctx context.Context, pollID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.voted[votePair{pollID, userID}] = struct{}{}
	return nil
}

func (r *fakePollRepo) HasVoted(ctx context.Context, pollID, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.voted[votePair{pollID, userID}]
	return ok, nil
}

func (r *fakePollRepo) CountVotedByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for pair := range r.voted {
		if pair.userID == userID {
			count++
		}
	}
	return count, nil
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages [][]byte
}

func (b *recordingBroadcaster) Broadcast(payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, payload)
}

func (b *recordingBroadcaster) sent() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]byte(nil), b.messages...)
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]redis.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[uuid.UUID]redis.Session)}
}

func (s *fakeSessionStore) Create(ctx context.Context, userID uuid.UUID, username string) (redis.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := redis.Session{
		ID:        uuid.New(),
		UserID:    userID,
		Username:  username,
		CreatedAt: time.Now(),
	}
	s.sessions[session.ID] = session
	return session, nil
}

func (s *fakeSessionStore) Get(ctx context.Context, id uuid.UUID) (redis.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return redis.Session{}, livepoll_errors.ErrNotFound
	}
	return session, nil
}

func (s *fakeSessionStore) Refresh(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (s *fakeSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *fakeSessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
