package composer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/email-shooter/internal/config"
	"github.com/ignite/email-shooter/internal/metrics"
	"github.com/ignite/email-shooter/internal/pkg/logger"
)

// DefaultSessionTTL is used when the configured TTL is not positive.
const DefaultSessionTTL = time.Hour

// DefaultMaxSessions is used when the configured cap is not positive.
const DefaultMaxSessions = 1000

// Manager keeps the live drafts.
type Manager struct {
	submitter Submitter
	limits    Limits
	ttl       time.Duration
	max       int
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Controller
}

// NewManager creates a Manager from composer configuration.
func NewManager(submitter Submitter, cfg config.ComposerConfig) *Manager {
	ttl := cfg.SessionTTL()
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	max := cfg.MaxSessions
	if max <= 0 {
		max = DefaultMaxSessions
	}
	return &Manager{
		submitter: submitter,
		limits: Limits{
			MaxFileBytes:       cfg.MaxFileBytes,
			MaxAttachmentBytes: cfg.MaxAttachmentBytes,
		},
		ttl:      ttl,
		max:      max,
		now:      time.Now,
		sessions: make(map[string]*Controller),
	}
}

// New creates a draft and returns its controller. When the live drafts are
// at the cap, idle ones are evicted first; if none are, New fails with
// ErrTooManySessions.
func (m *Manager) New() (*Controller, error) {
	now := m.now()
	c := NewController(uuid.New().String(), m.submitter, m.limits)
	c.now = m.now
	c.st.touched = now

	m.mu.Lock()
	if len(m.sessions) >= m.max {
		m.evictIdle(now)
	}
	if len(m.sessions) >= m.max {
		n := len(m.sessions)
		m.mu.Unlock()
		metrics.ActiveDrafts.Set(float64(n))
		logger.Warn("draft limit reached", "drafts", n, "max", m.max)
		return nil, ErrTooManySessions
	}
	m.sessions[c.id] = c
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.ActiveDrafts.Set(float64(n))
	return c, nil
}

// Get returns the controller for id.
func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.RLock()
	c, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return c, nil
}

// Delete discards a draft. It reports whether the draft existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.ActiveDrafts.Set(float64(n))
	return ok
}

// Len returns the number of live drafts.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep evicts drafts idle for longer than the TTL and returns how many
// were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	evicted := m.evictIdle(m.now())
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.ActiveDrafts.Set(float64(n))
	if evicted > 0 {
		logger.Info("evicted idle drafts", "count", evicted, "remaining", n)
	}
	return evicted
}

// evictIdle removes drafts idle at now. m.mu must be held.
func (m *Manager) evictIdle(now time.Time) int {
	evicted := 0
	for id, c := range m.sessions {
		if c.idle(now, m.ttl) {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Run sweeps idle drafts until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	interval := m.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
