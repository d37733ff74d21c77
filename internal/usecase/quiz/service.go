// Package quiz manages guided-search sessions. Session state lives only in
// process memory: sessions are throwaway UI state, never persisted, and
// expire after an idle period.
package quiz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/propfind/searchcore/internal/domain"
	"github.com/propfind/searchcore/internal/domain/quiz"
	"github.com/propfind/searchcore/internal/domain/search/result"
	"github.com/propfind/searchcore/internal/usecase/search"
)

// DefaultSessionTTL is the idle period after which a session expires.
const DefaultSessionTTL = time.Hour

// Session is a point-in-time snapshot of one quiz session.
type Session struct {
	ID    string
	State quiz.State
}

// Service owns the session table and applies quiz actions to it. All state
// transitions for a session are serialized under the table lock, so
// concurrent actions on one session apply one at a time in arrival order.
type Service struct {
	searcher Searcher
	limits   quiz.NarrowingLimits
	ttl      time.Duration
	now      func() time.Time

	// onComplete fires once per session when it first reaches the final step.
	onComplete func()

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	state      quiz.State
	lastAccess time.Time
	completed  bool
	seq        search.Sequencer
}

// New creates a quiz service.
func New(searcher Searcher, limits quiz.NarrowingLimits, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Service{
		searcher: searcher,
		limits:   limits,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// WithCompletionHook registers a callback fired when a session first reaches
// the final step.
func (s *Service) WithCompletionHook(fn func()) *Service {
	s.onComplete = fn
	return s
}

// Create starts a new session at the first step.
func (s *Service) Create() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpiredLocked()

	id := uuid.NewString()
	s.sessions[id] = &session{state: quiz.NewState(), lastAccess: s.now()}
	return Session{ID: id, State: quiz.NewState()}
}

// Get returns the session snapshot. Expired sessions are gone: the caller
// starts over rather than resuming stale answers.
func (s *Service) Get(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionLocked(id)
	if err != nil {
		return Session{}, err
	}
	return Session{ID: id, State: sess.state}, nil
}

// Apply runs one action against the session and returns the new snapshot.
// Every access slides the idle expiry window.
func (s *Service) Apply(id string, action quiz.Action) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionLocked(id)
	if err != nil {
		return Session{}, err
	}

	sess.state = quiz.Reduce(sess.state, action)

	if _, isReset := action.(quiz.Reset); isReset {
		sess.completed = false
	} else if !sess.completed && sess.state.CurrentStepIndex() == quiz.StepCount-1 {
		sess.completed = true
		if s.onComplete != nil {
			s.onComplete()
		}
	}

	return Session{ID: id, State: sess.state}, nil
}

// Results searches for candidates matching the session's accumulated
// preferences, narrowed to the current step's limit. Overlapping calls for
// one session are last-writer-wins by start order: a call superseded while
// its search was in flight returns ErrSuperseded instead of a stale page.
func (s *Service) Results(ctx context.Context, id string) (result.SearchResult, error) {
	s.mu.Lock()
	sess, err := s.sessionLocked(id)
	if err != nil {
		s.mu.Unlock()
		return result.SearchResult{}, err
	}
	state := sess.state
	ticket := sess.seq.Begin()
	s.mu.Unlock()

	c, err := state.Criteria(s.limits)
	if err != nil {
		return result.SearchResult{}, fmt.Errorf("%w: %w", domain.ErrInvalidCriteria, err)
	}

	res, err := s.searcher.Search(ctx, c)
	if err != nil {
		return result.SearchResult{}, err
	}

	if !sess.seq.Current(ticket) {
		return result.SearchResult{}, domain.ErrSuperseded
	}
	return res, nil
}

// sessionLocked resolves a live session and refreshes its idle window.
// Callers hold s.mu.
func (s *Service) sessionLocked(id string) (*session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	now := s.now()
	if now.Sub(sess.lastAccess) > s.ttl {
		delete(s.sessions, id)
		return nil, domain.ErrSessionNotFound
	}
	sess.lastAccess = now
	return sess, nil
}

// evictExpiredLocked sweeps expired sessions. Called on session creation so
// the table never grows unbounded without a background janitor.
func (s *Service) evictExpiredLocked() {
	now := s.now()
	for id, sess := range s.sessions {
		if now.Sub(sess.lastAccess) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
