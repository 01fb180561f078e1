package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"
)

var (
	// ErrSessionNotFound indicates the presented token does not map to an active session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates the session exists but its lifetime has elapsed.
	ErrSessionExpired = errors.New("session expired")
)

// SessionStore persists issued bearer tokens so they can survive process restarts.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Find(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
}

// Session represents an opaque bearer token issued to a user at login.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// Manager issues and validates bearer tokens backed by a persistent store.
type Manager struct {
	ttl   time.Duration
	store SessionStore

	nowFunc func() time.Time
}

// NewManager constructs a Manager issuing tokens with the provided lifetime.
func NewManager(ttl time.Duration, store SessionStore) *Manager {
	if store == nil {
		panic("auth: session store must not be nil")
	}
	return &Manager{ttl: ttl, store: store, nowFunc: func() time.Time { return time.Now().UTC() }}
}

// Issue creates a new bearer token for the provided user identifier.
func (m *Manager) Issue(ctx context.Context, userID string) (Session, error) {
	if userID == "" {
		return Session{}, errors.New("user id must be provided")
	}

	token, err := randomToken()
	if err != nil {
		return Session{}, err
	}

	session := Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: m.nowFunc().Add(m.ttl),
	}

	if err := m.store.Save(ctx, session); err != nil {
		return Session{}, err
	}

	return session, nil
}

// Validate resolves a bearer token to the user it was issued for.
// Expired sessions are deleted on sight.
func (m *Manager) Validate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrSessionNotFound
	}

	session, err := m.store.Find(ctx, token)
	if err != nil {
		return "", err
	}

	if m.nowFunc().After(session.ExpiresAt) {
		_ = m.store.Delete(ctx, token)
		return "", ErrSessionExpired
	}

	return session.UserID, nil
}

// Revoke removes the provided token from the active session store.
func (m *Manager) Revoke(ctx context.Context, token string) {
	if token == "" {
		return
	}
	_ = m.store.Delete(ctx, token)
}

func randomToken() (string, error) {
	const size = 32
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
