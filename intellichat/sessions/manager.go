// intellichat/sessions/manager.go
package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	"intellichat/intellichat/services/genai"
	"intellichat/intellichat/utils/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrBusy is returned when a turn is already in flight for the session.
// One request/response cycle runs at a time; there is no queueing.
var ErrBusy = errors.New("session busy: a turn is already in progress")

// Session is the explicit per-conversation context: the conversation log,
// the text-model chat handle, and the in-flight guard. It is created on
// the first interaction and discarded on teardown.
type Session struct {
	ID        string
	CreatedAt time.Time
	Log       *Log
	Chat      *genai.ChatSession

	mu         sync.Mutex
	busy       bool
	lastActive time.Time
}

// Begin marks a turn as in flight. It fails with ErrBusy when another
// turn for this session has not completed yet.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	s.lastActive = time.Now()
	return nil
}

// End marks the in-flight turn as finished.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.lastActive = time.Now()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Manager owns all live sessions. Each session has its own log and chat
// handle; the map is the only cross-session shared state.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{sessions: make(map[string]*Session), ttl: ttl}
}

// Create registers a new session around the given chat handle.
func (m *Manager) Create(chat *genai.ChatSession) *Session {
	now := time.Now()
	sess := &Session{
		ID:         uuid.New().String(),
		CreatedAt:  now,
		Log:        &Log{},
		Chat:       chat,
		lastActive: now,
	}
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Delete tears the session down. Its log and chat handle are dropped with it.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reap removes sessions idle longer than the TTL and reports how many
// were removed.
func (m *Manager) Reap(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	var stale []string
	for id, sess := range m.sessions {
		if now.Sub(sess.idleSince()) > m.ttl {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	return len(stale)
}

// StartReaper sweeps idle sessions on the given interval until ctx ends.
func (m *Manager) StartReaper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := m.Reap(now); n > 0 {
					logging.AppLogger.Info("reaped idle sessions", zap.Int("count", n))
				}
			}
		}
	}()
}
