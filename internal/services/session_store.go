package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/quiz-builder/internal/repositories"
	"github.com/google/uuid"
)

type sessionEntry struct {
	mu       sync.Mutex
	session  *EditorSession
	lastUsed time.Time
	closed   bool
}

// SessionStore keeps the open editor sessions. Each session is handed out to
// one caller at a time. Sessions unused for longer than the idle TTL are
// evicted; a zero TTL keeps them until closed.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	quizzes       repositories.QuizRepository
	dragThreshold float64
	idleTTL       time.Duration
	now           func() time.Time
	logger        *ServiceLogger
}

func NewSessionStore(quizzes repositories.QuizRepository, dragThreshold float64, idleTTL time.Duration, logger *slog.Logger) *SessionStore {
	return &SessionStore{
		sessions:      make(map[string]*sessionEntry),
		quizzes:       quizzes,
		dragThreshold: dragThreshold,
		idleTTL:       idleTTL,
		now:           time.Now,
		logger:        NewServiceLogger(logger, LogConfig{Component: "sessions"}),
	}
}

// Open starts a session. With a quiz id the stored quiz and its questions are
// loaded into it; otherwise it starts empty.
func (s *SessionStore) Open(ctx context.Context, quizID *uint) (*EditorSession, error) {
	s.EvictIdle(ctx)

	start := time.Now()
	id := uuid.NewString()
	notifier := s.notifier(id)

	var (
		session *EditorSession
		err     error
	)
	if quizID != nil && *quizID != 0 {
		record, getErr := s.quizzes.GetWithQuestions(ctx, *quizID)
		if getErr != nil {
			err = fmt.Errorf("failed to load quiz %d: %w", *quizID, getErr)
			s.logger.LogOperation(ctx, "open_session", id, time.Since(start), err)
			return nil, err
		}
		session, err = NewEditorSessionFromRecord(id, record, notifier)
		if err != nil {
			s.logger.LogOperation(ctx, "open_session", id, time.Since(start), err)
			return nil, err
		}
	} else {
		session = NewEditorSession(id, notifier)
	}
	session.SetDragThreshold(s.dragThreshold)

	s.mu.Lock()
	s.sessions[id] = &sessionEntry{session: session, lastUsed: s.now()}
	s.mu.Unlock()

	s.logger.LogOperation(ctx, "open_session", id, time.Since(start), nil)
	return session, nil
}

// With runs fn while holding the session exclusively
func (s *SessionStore) With(id string, fn func(*EditorSession) error) error {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.closed {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	entry.lastUsed = s.now()
	return fn(entry.session)
}

// Close forgets a session
func (s *SessionStore) Close(id string) error {
	s.mu.Lock()
	entry, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	s.mu.Unlock()

	entry.mu.Lock()
	entry.closed = true
	entry.mu.Unlock()
	return nil
}

// EvictIdle drops the sessions whose last use, or last edit, is older than
// the idle TTL. Sessions in use right now are skipped.
func (s *SessionStore) EvictIdle(ctx context.Context) int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, entry := range s.sessions {
		if !entry.mu.TryLock() {
			continue
		}
		lastUsed := entry.lastUsed
		if entry.session.UpdatedAt.After(lastUsed) {
			lastUsed = entry.session.UpdatedAt
		}
		if lastUsed.Before(cutoff) {
			entry.closed = true
			delete(s.sessions, id)
			evicted++
		}
		entry.mu.Unlock()
	}

	if evicted > 0 {
		s.logger.Info(ctx, "Evicted idle editor sessions", "count", evicted, "remaining", len(s.sessions))
	}
	return evicted
}

// RunJanitor evicts idle sessions every interval until ctx is done
func (s *SessionStore) RunJanitor(ctx context.Context, interval time.Duration) {
	if s.idleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle(ctx)
		}
	}
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) notifier(sessionID string) Notifier {
	return NotifierFunc(func(ctx context.Context, message string) {
		s.logger.Warn(ctx, message, "session_id", sessionID)
	})
}
