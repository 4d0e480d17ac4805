// Package hover ties the pipeline together for each page session:
// debounced triggers are located, coordinated and rendered.
package hover

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kdimtricp/hoverlabel/internal/coordinator"
	"github.com/kdimtricp/hoverlabel/internal/feedback"
	"github.com/kdimtricp/hoverlabel/internal/logging"
)

var (
	ErrDisabled        = errors.New("labeling is disabled")
	ErrSessionNotFound = errors.New("session not found")
	ErrNoVerdict       = errors.New("no verdict for image")
	ErrInvalidImage    = errors.New("invalid image url")
)

type Config struct {
	CacheCapacity int
	Debounce      time.Duration
	Coordinator   coordinator.Config
}

type Service struct {
	encoder    coordinator.Encoder
	classifier coordinator.Classifier
	sink       feedback.Sink
	config     Config

	enabled atomic.Bool

	sessions   map[string]*Session
	sessionsMu sync.RWMutex
}

func NewService(
	encoder coordinator.Encoder,
	classifier coordinator.Classifier,
	sink feedback.Sink,
	config Config,
) *Service {
	s := &Service{
		encoder:    encoder,
		classifier: classifier,
		sink:       sink,
		config:     config,
		sessions:   make(map[string]*Session),
	}
	s.enabled.Store(true)
	return s
}

// CreateSession starts a fresh session for a page load. Each session owns
// its own cache, in-flight set, feedback ledger and overlays.
func (s *Service) CreateSession(pageURL string) *Session {
	session := newSession(uuid.New().String(), pageURL, s)

	s.sessionsMu.Lock()
	s.sessions[session.ID] = session
	s.sessionsMu.Unlock()

	logging.Info("session created", "session", session.ID, "page", pageURL)
	return session
}

func (s *Service) GetSession(sessionID string) (*Session, bool) {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()

	session, exists := s.sessions[sessionID]
	return session, exists
}

// DeleteSession discards everything the session holds. Classifications
// still in flight finish but render nowhere.
func (s *Service) DeleteSession(sessionID string) error {
	s.sessionsMu.Lock()
	session, exists := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.sessionsMu.Unlock()

	if !exists {
		return ErrSessionNotFound
	}

	session.close()
	logging.Info("session deleted", "session", sessionID)
	return nil
}

func (s *Service) SessionCount() int {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()
	return len(s.sessions)
}

func (s *Service) Enabled() bool {
	return s.enabled.Load()
}

// SetEnabled flips the global toggle. Disabling cancels every pending
// trigger and removes every overlay; enabling again does not replay them.
func (s *Service) SetEnabled(enabled bool) {
	if s.enabled.Swap(enabled) == enabled {
		return
	}

	if !enabled {
		s.sessionsMu.RLock()
		for _, session := range s.sessions {
			session.debouncer.Stop()
			session.overlays.ClearAll()
		}
		s.sessionsMu.RUnlock()
	}

	logging.Info("labeling toggled", "enabled", enabled)
}

// Shutdown drops all sessions.
func (s *Service) Shutdown() {
	s.sessionsMu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.sessionsMu.Unlock()

	for _, session := range sessions {
		session.close()
	}
}
