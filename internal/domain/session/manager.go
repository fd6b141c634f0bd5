package session

import (
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/traceshop/backend/internal/infrastructure/logging"
	"github.com/traceshop/backend/internal/shared/id"
)

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

const (
	// DefaultTTL is how long an untouched session survives.
	DefaultTTL = 30 * time.Minute
	// sweepInterval is how often expired sessions are collected.
	sweepInterval = time.Minute
)

// Handoff carries checkout results across the page navigation boundary. The
// checkout page stores it, the confirmation page takes it exactly once.
type Handoff struct {
	OrderID    string
	TotalCents int64
	Currency   string
}

// Session is one browsing session. FlowSpanKey binds the session to its
// active business-flow span so page loads can parent their request spans.
type Session struct {
	ID          string
	FlowSpanKey string
	CreatedAt   time.Time
	LastSeen    time.Time
	handoff     *Handoff
}

// Manager tracks browsing sessions in memory with TTL expiry.
type Manager struct {
	ttl    time.Duration
	clk    clock.Clock
	logger *logging.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	done     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a session manager and starts its expiry sweeper.
func NewManager(ttl time.Duration, logger *logging.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		ttl:      ttl,
		clk:      clock.New(),
		logger:   logger,
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
	}
	go m.sweep()
	return m
}

// NewManagerWithClock creates a manager on an injected clock. The sweeper is
// not started; tests call Sweep directly.
func NewManagerWithClock(ttl time.Duration, clk clock.Clock, logger *logging.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		ttl:      ttl,
		clk:      clk,
		logger:   logger,
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
	}
}

// Create starts a new session.
func (m *Manager) Create() *Session {
	now := m.clk.Now()
	s := &Session{
		ID:        id.NewSessionID().String(),
		CreatedAt: now,
		LastSeen:  now,
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Debug("session created", zap.String("session_id", s.ID))
	return s
}

// Get returns a live session and refreshes its TTL.
func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok || m.expiredLocked(s) {
		return nil, ErrNotFound
	}
	s.LastSeen = m.clk.Now()
	return s, nil
}

// GetOrCreate returns the session if live, otherwise starts a fresh one.
func (m *Manager) GetOrCreate(sessionID string) *Session {
	if sessionID != "" {
		if s, err := m.Get(sessionID); err == nil {
			return s
		}
	}
	return m.Create()
}

// BindFlow associates the session with its active flow span key. An empty
// key clears the binding.
func (m *Manager) BindFlow(sessionID, spanKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok || m.expiredLocked(s) {
		return ErrNotFound
	}
	s.FlowSpanKey = spanKey
	s.LastSeen = m.clk.Now()
	return nil
}

// SetHandoff stores checkout results for the confirmation page.
func (m *Manager) SetHandoff(sessionID string, h Handoff) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok || m.expiredLocked(s) {
		return ErrNotFound
	}
	s.handoff = &h
	s.LastSeen = m.clk.Now()
	return nil
}

// TakeHandoff returns and clears the stored handoff. The second return is
// false when no handoff is pending, which the confirmation page treats as a
// direct navigation rather than an error.
func (m *Manager) TakeHandoff(sessionID string) (Handoff, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok || m.expiredLocked(s) || s.handoff == nil {
		return Handoff{}, false
	}
	h := *s.handoff
	s.handoff = nil
	s.LastSeen = m.clk.Now()
	return h, true
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, s := range m.sessions {
		if !m.expiredLocked(s) {
			count++
		}
	}
	return count
}

// Sweep removes expired sessions and returns how many were collected.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, s := range m.sessions {
		if m.expiredLocked(s) {
			delete(m.sessions, key)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Debug("expired sessions collected", zap.Int("count", removed))
	}
	return removed
}

// Close stops the expiry sweeper.
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.done) })
}

func (m *Manager) sweep() {
	ticker := m.clk.Ticker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.done:
			return
		}
	}
}

func (m *Manager) expiredLocked(s *Session) bool {
	return m.clk.Now().Sub(s.LastSeen) > m.ttl
}
