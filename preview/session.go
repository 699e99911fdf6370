// Package preview keeps the paginated preview of each resume current.
//
// A Session starts Unmeasured. The first request measures and packs the
// rendered document and moves it to Measured. The partition is reused until
// the resume fingerprint changes or the container is remounted, which moves
// the session back to Unmeasured. A failed recompute leaves the session
// Unmeasured; there is no terminal state.
package preview

import (
	"context"
	"sync"

	"github.com/goliatone/go-resume/export"
)

// State is the measurement state of a session.
type State int

const (
	Unmeasured State = iota
	Measured
)

func (s State) String() string {
	if s == Measured {
		return "measured"
	}
	return "unmeasured"
}

// ComputeFunc measures and packs a document.
type ComputeFunc func(ctx context.Context) (export.Paginated, error)

// Session holds the current partition of one resume.
type Session struct {
	mu          sync.Mutex
	state       State
	fingerprint string
	result      export.Paginated
}

// State reports the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Fingerprint returns the fingerprint the current partition was computed for.
func (s *Session) Fingerprint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fingerprint
}

// Observe records the latest content fingerprint and invalidates the
// partition when it differs from the measured one.
func (s *Session) Observe(fingerprint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observe(fingerprint)
}

// Remount invalidates the partition.
func (s *Session) Remount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Result returns the partition for fingerprint, computing it when the
// session is Unmeasured. The boolean reports whether the partition was
// reused. Recomputes are serialized per session and applied all at once.
func (s *Session) Result(ctx context.Context, fingerprint string, compute ComputeFunc) (export.Paginated, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observe(fingerprint)
	if s.state == Measured {
		return s.result, true, nil
	}

	result, err := compute(ctx)
	if err != nil {
		return export.Paginated{}, false, err
	}
	s.state = Measured
	s.fingerprint = fingerprint
	s.result = result
	return result, false, nil
}

func (s *Session) observe(fingerprint string) {
	if s.state == Measured && s.fingerprint != fingerprint {
		s.reset()
	}
}

func (s *Session) reset() {
	s.state = Unmeasured
	s.fingerprint = ""
	s.result = export.Paginated{}
}

// Manager keeps one session per resume id.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Session returns the session for id, creating it on first use.
func (m *Manager) Session(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions == nil {
		m.sessions = make(map[string]*Session)
	}
	session, ok := m.sessions[id]
	if !ok {
		session = &Session{}
		m.sessions[id] = session
	}
	return session
}

// Remount invalidates the session for id if one exists.
func (m *Manager) Remount(id string) {
	m.mu.Lock()
	session := m.sessions[id]
	m.mu.Unlock()
	if session != nil {
		session.Remount()
	}
}

// Forget drops the session for id.
func (m *Manager) Forget(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len reports the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
