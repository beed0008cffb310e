package services

import (
	"context"
	"errors"
	"time"

	"livepoll/internal/domain/user"
	"livepoll/internal/redis"
	"livepoll/internal/repository"
	livepoll_errors "livepoll/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SessionStore is the session collaborator the auth service talks to.
type SessionStore interface {
	Create(ctx context.Context, userID uuid.UUID, username string) (redis.Session, error)
	Get(ctx context.Context, id uuid.UUID) (redis.Session, error)
	Refresh(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type AuthService struct {
	users    repository.UserRepository
	sessions SessionStore
	secret   []byte
}

func NewAuthService(users repository.UserRepository, sessions SessionStore, secret string) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		secret:   []byte(secret),
	}
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Signup creates a user and establishes a session for it. A taken username
// is ErrAlreadyExists; no session is established in that case.
func (s *AuthService) Signup(ctx context.Context, username, password string) (redis.Session, string, error) {
	if username == "" || password == "" {
		return redis.Session{}, "", livepoll_errors.ErrInvalidInput
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return redis.Session{}, "", livepoll_errors.ErrAlreadyExists
	} else if !errors.Is(err, livepoll_errors.ErrNotFound) {
		return redis.Session{}, "", err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return redis.Session{}, "", err
	}

	newUser := &user.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, newUser); err != nil {
		return redis.Session{}, "", err
	}

	return s.establishSession(ctx, newUser.ID, newUser.Username)
}

// Login verifies credentials and establishes a session. An unknown username
// and a wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (redis.Session, string, error) {
	if username == "" || password == "" {
		return redis.Session{}, "", livepoll_errors.ErrInvalidCredentials
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, livepoll_errors.ErrNotFound) {
			return redis.Session{}, "", livepoll_errors.ErrInvalidCredentials
		}
		return redis.Session{}, "", err
	}

	if err := comparePassword(u.PasswordHash, password); err != nil {
		return redis.Session{}, "", livepoll_errors.ErrInvalidCredentials
	}

	return s.establishSession(ctx, u.ID, u.Username)
}

// Logout destroys the session behind the token. A stale token is a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	sessionID, err := s.parseSessionToken(token)
	if err != nil {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

// SessionFromToken resolves a cookie token to its live session, refreshing
// the session TTL on the way.
func (s *AuthService) SessionFromToken(ctx context.Context, token string) (redis.Session, error) {
	sessionID, err := s.parseSessionToken(token)
	if err != nil {
		return redis.Session{}, livepoll_errors.ErrUnauthorized
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, livepoll_errors.ErrNotFound) {
			return redis.Session{}, livepoll_errors.ErrSessionExpired
		}
		return redis.Session{}, err
	}

	_ = s.sessions.Refresh(ctx, sessionID)
	return session, nil
}

func (s *AuthService) establishSession(ctx context.Context, userID uuid.UUID, username string) (redis.Session, string, error) {
	session, err := s.sessions.Create(ctx, userID, username)
	if err != nil {
		return redis.Session{}, "", err
	}

	token, err := s.signSessionToken(session.ID)
	if err != nil {
		return redis.Session{}, "", err
	}
	return session, token, nil
}

func (s *AuthService) signSessionToken(sessionID uuid.UUID) (string, error) {
	claims := sessionClaims{
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *AuthService) parseSessionToken(token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, livepoll_errors.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, livepoll_errors.ErrUnauthorized
		}
		return s.secret, nil
	})
	if err != nil {
		return uuid.Nil, livepoll_errors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return uuid.Nil, livepoll_errors.ErrUnauthorized
	}

	return uuid.Parse(claims.SessionID)
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func comparePassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
