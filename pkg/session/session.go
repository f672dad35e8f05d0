package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoSession is returned when nobody is signed in or the session expired.
var ErrNoSession = errors.New("no active session")

// Session is the state established by a successful login.
type Session struct {
	UserID    int
	Email     string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time // zero means no expiry
}

// Expired reports whether the session has an expiry that lies before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Store holds at most one session for the running client.
type Store struct {
	mu      sync.RWMutex
	current *Session
	ttl     time.Duration
	now     func() time.Time
}

// NewStore creates a session store. A ttl of zero keeps sessions until logout.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl: ttl,
		now: time.Now,
	}
}

// Begin replaces the current session.
func (s *Store) Begin(userID int, email, token string) Session {
	now := s.now()
	sess := Session{
		UserID:   userID,
		Email:    email,
		Token:    token,
		IssuedAt: now,
	}
	if s.ttl > 0 {
		sess.ExpiresAt = now.Add(s.ttl)
	}

	s.mu.Lock()
	s.current = &sess
	s.mu.Unlock()

	return sess
}

// Current returns the active session. An expired session is dropped.
func (s *Store) Current() (Session, error) {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()

	if cur == nil {
		return Session{}, ErrNoSession
	}
	if cur.Expired(s.now()) {
		s.mu.Lock()
		if s.current == cur {
			s.current = nil
		}
		s.mu.Unlock()
		return Session{}, ErrNoSession
	}
	return *cur, nil
}

// Clear ends the current session.
func (s *Store) Clear() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying sess.
func NewContext(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the session carried by ctx, if any.
func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(ctxKey{}).(Session)
	return sess, ok
}

// Attach threads the store's current session, if any, into ctx.
func (s *Store) Attach(ctx context.Context) context.Context {
	sess, err := s.Current()
	if err != nil {
		return ctx
	}
	return NewContext(ctx, sess)
}
