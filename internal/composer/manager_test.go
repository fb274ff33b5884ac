package composer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/email-shooter/internal/config"
)

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(&fakeSubmitter{}, config.ComposerConfig{})

	c, err := m.New()
	require.NoError(t, err)
	require.NotEmpty(t, c.ID())
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(c.ID())
	require.NoError(t, err)
	assert.Same(t, c, got)

	assert.True(t, m.Delete(c.ID()))
	assert.False(t, m.Delete(c.ID()))

	_, err = m.Get(c.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerSweepEvictsIdleDrafts(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(&fakeSubmitter{}, config.ComposerConfig{SessionTTLMinutes: 30})
	m.now = func() time.Time { return now }

	stale, err := m.New()
	require.NoError(t, err)
	now = now.Add(20 * time.Minute)
	fresh, err := m.New()
	require.NoError(t, err)
	fresh.SetSubject("still editing")

	now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, m.Sweep())

	_, err = m.Get(stale.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get(fresh.ID())
	assert.NoError(t, err)
}

func TestManagerDefaults(t *testing.T) {
	m := NewManager(&fakeSubmitter{}, config.ComposerConfig{})
	assert.Equal(t, DefaultSessionTTL, m.ttl)
	assert.Equal(t, DefaultMaxSessions, m.max)
}

func TestManagerRefusesDraftsOverCap(t *testing.T) {
	m := NewManager(&fakeSubmitter{}, config.ComposerConfig{MaxSessions: 2})
	first, err := m.New()
	require.NoError(t, err)
	_, err = m.New()
	require.NoError(t, err)

	_, err = m.New()
	require.ErrorIs(t, err, ErrTooManySessions)
	assert.Equal(t, 2, m.Len())

	require.True(t, m.Delete(first.ID()))
	_, err = m.New()
	assert.NoError(t, err)
}

func TestManagerEvictsIdleDraftAtCap(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(&fakeSubmitter{}, config.ComposerConfig{SessionTTLMinutes: 10, MaxSessions: 1})
	m.now = func() time.Time { return now }

	stale, err := m.New()
	require.NoError(t, err)
	now = now.Add(11 * time.Minute)

	fresh, err := m.New()
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	_, err = m.Get(stale.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get(fresh.ID())
	assert.NoError(t, err)
}
