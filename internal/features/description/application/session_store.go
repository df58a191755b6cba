package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"productprose/backend/internal/features/description/domain"
)

// SessionStore holds the state of every open session.
type SessionStore interface {
	Create(ctx context.Context) (*domain.Session, error)
	Get(ctx context.Context, id string) (*domain.Session, error)
	// Update runs fn on a copy of the session while holding that session's
	// lock. The copy replaces the stored session only if fn returns nil.
	Update(ctx context.Context, id string, fn func(s *domain.Session) error) (*domain.Session, error)
	// Reset replaces the session with an empty one, keeping its id.
	Reset(ctx context.Context, id string) (*domain.Session, error)
	// ExpireIdle drops sessions not updated since cutoff and returns how many went.
	ExpireIdle(ctx context.Context, cutoff time.Time) int
	Len() int
}

type sessionEntry struct {
	mu      sync.Mutex
	session *domain.Session
}

// MemorySessionStore is an in-memory SessionStore.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	now      func() time.Time
}

// NewMemorySessionStore creates an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*sessionEntry),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Create(ctx context.Context) (*domain.Session, error) {
	now := s.now()
	session := &domain.Session{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}

	s.mu.Lock()
	s.sessions[session.ID] = &sessionEntry{session: session}
	s.mu.Unlock()

	return session.Clone(), nil
}

func (s *MemorySessionStore) entry(id string) (*sessionEntry, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return e, nil
}

func (s *MemorySessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone(), nil
}

func (s *MemorySessionStore) Update(ctx context.Context, id string, fn func(s *domain.Session) error) (*domain.Session, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	draft := e.session.Clone()
	if err := fn(draft); err != nil {
		return nil, err
	}
	draft.ID = e.session.ID
	draft.UpdatedAt = s.now()
	e.session = draft
	return draft.Clone(), nil
}

func (s *MemorySessionStore) Reset(ctx context.Context, id string) (*domain.Session, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	now := s.now()
	e.session = &domain.Session{ID: id, CreatedAt: now, UpdatedAt: now}
	return e.session.Clone(), nil
}

// ExpireIdle skips sessions that are busy with a stage call.
func (s *MemorySessionStore) ExpireIdle(ctx context.Context, cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for id, e := range s.sessions {
		if !e.mu.TryLock() {
			continue
		}
		idle := e.session.UpdatedAt.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			expired++
		}
	}
	return expired
}

func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
