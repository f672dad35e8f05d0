package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLifecycle(t *testing.T) {
	s := NewStore(0)

	_, err := s.Current()
	assert.ErrorIs(t, err, ErrNoSession)

	s.Begin(3, "a@b.c", "tok")
	cur, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, 3, cur.UserID)
	assert.Equal(t, "tok", cur.Token)
	assert.True(t, cur.ExpiresAt.IsZero())

	s.Clear()
	_, err = s.Current()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStoreExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(time.Minute)
	s.now = func() time.Time { return now }

	s.Begin(1, "a@b.c", "")
	_, err := s.Current()
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.Current()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestAttach(t *testing.T) {
	s := NewStore(0)
	ctx := s.Attach(context.Background())
	_, ok := FromContext(ctx)
	assert.False(t, ok)

	s.Begin(9, "x@y.z", "secret")
	ctx = s.Attach(context.Background())
	sess, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "secret", sess.Token)
}
