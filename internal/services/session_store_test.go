package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time { return c.current }

func (c *fakeClock) Advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestSessionStore(idleTTL time.Duration) (*SessionStore, *fakeClock) {
	clock := &fakeClock{current: time.Now()}
	store := NewSessionStore(new(MockQuizRepository), 12, idleTTL, testLogger())
	store.now = clock.Now
	return store, clock
}

func TestSessionStore_EvictIdle(t *testing.T) {
	ctx := context.Background()

	t.Run("idle session is evicted", func(t *testing.T) {
		store, clock := newTestSessionStore(time.Hour)
		session, err := store.Open(ctx, nil)
		require.NoError(t, err)

		clock.Advance(2 * time.Hour)
		assert.Equal(t, 1, store.EvictIdle(ctx))
		assert.Equal(t, 0, store.Len())

		err = store.With(session.ID, func(*EditorSession) error { return nil })
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("recently used session is kept", func(t *testing.T) {
		store, clock := newTestSessionStore(time.Hour)
		session, err := store.Open(ctx, nil)
		require.NoError(t, err)

		clock.Advance(40 * time.Minute)
		require.NoError(t, store.With(session.ID, func(*EditorSession) error { return nil }))
		clock.Advance(40 * time.Minute)

		assert.Equal(t, 0, store.EvictIdle(ctx))
		assert.NoError(t, store.With(session.ID, func(*EditorSession) error { return nil }))
	})

	t.Run("opening a session evicts stale ones", func(t *testing.T) {
		store, clock := newTestSessionStore(time.Hour)
		stale, err := store.Open(ctx, nil)
		require.NoError(t, err)

		clock.Advance(90 * time.Minute)
		fresh, err := store.Open(ctx, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, store.Len())
		assert.ErrorIs(t, store.With(stale.ID, func(*EditorSession) error { return nil }), ErrSessionNotFound)
		assert.NoError(t, store.With(fresh.ID, func(*EditorSession) error { return nil }))
	})

	t.Run("session in use is skipped", func(t *testing.T) {
		store, clock := newTestSessionStore(time.Hour)
		session, err := store.Open(ctx, nil)
		require.NoError(t, err)

		err = store.With(session.ID, func(*EditorSession) error {
			clock.Advance(2 * time.Hour)
			assert.Equal(t, 0, store.EvictIdle(ctx))
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("zero ttl never evicts", func(t *testing.T) {
		store, clock := newTestSessionStore(0)
		_, err := store.Open(ctx, nil)
		require.NoError(t, err)

		clock.Advance(24 * 365 * time.Hour)
		assert.Equal(t, 0, store.EvictIdle(ctx))
		assert.Equal(t, 1, store.Len())
	})
}

func TestSessionStore_RunJanitor(t *testing.T) {
	store, clock := newTestSessionStore(time.Hour)
	_, err := store.Open(context.Background(), nil)
	require.NoError(t, err)
	clock.Advance(2 * time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.RunJanitor(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}

func TestSessionStore_Close(t *testing.T) {
	store, _ := newTestSessionStore(time.Hour)
	session, err := store.Open(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, store.Close(session.ID))
	assert.ErrorIs(t, store.Close(session.ID), ErrSessionNotFound)
	assert.ErrorIs(t, store.With(session.ID, func(*EditorSession) error { return nil }), ErrSessionNotFound)
}
