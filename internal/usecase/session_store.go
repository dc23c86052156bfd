package usecase

import (
	"sync"
	"time"

	"github.com/glamfinder/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SessionStore keeps search sessions in memory and expires idle ones
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*SearchSession
	ttl      time.Duration
	stop     chan struct{}
	once     sync.Once
	logger   logrus.FieldLogger
}

// NewSessionStore creates a store that sweeps every ttl/2
func NewSessionStore(ttl time.Duration, logger logrus.FieldLogger) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return NewSessionStoreWithInterval(ttl, ttl/2, logger)
}

// NewSessionStoreWithInterval creates a store with an explicit sweep interval
func NewSessionStoreWithInterval(ttl, interval time.Duration, logger logrus.FieldLogger) *SessionStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &SessionStore{
		sessions: make(map[string]*SearchSession),
		ttl:      ttl,
		stop:     make(chan struct{}),
		logger:   logger,
	}
	go s.sweep(interval)
	return s
}

// Create registers a new idle session
func (s *SessionStore) Create() *SearchSession {
	session := NewSearchSession(uuid.NewString())

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	s.logger.WithField("session", session.ID()).Debug("[SESSION] Created")
	return session
}

// Get returns a live session and refreshes its idle timer
func (s *SessionStore) Get(id string) (*SearchSession, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrSessionNotFound
	}

	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	session.touch()
	return session, nil
}

// Len returns the number of live sessions
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the background sweep. Safe to call more than once.
func (s *SessionStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *SessionStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			s.removeExpired(now)
		case <-s.stop:
			return
		}
	}
}

// removeExpired drops sessions idle longer than the TTL; running searches are kept
func (s *SessionStore) removeExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		since, idle := session.idleSince()
		if idle && now.Sub(since) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		s.logger.WithFields(logrus.Fields{
			"removed": removed,
			"live":    len(s.sessions),
		}).Debug("[SESSION] Expired idle sessions")
	}
}
