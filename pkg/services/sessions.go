package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 2 * time.Hour

type sessionEntry[T any] struct {
	mu      sync.Mutex
	value   T
	touched time.Time
}

// sessionStore keeps in-memory sessions keyed by id. Calls on one session are
// serialized; different sessions proceed independently.
type sessionStore[T any] struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry[T]
	ttl     time.Duration
	now     func() time.Time
}

func newSessionStore[T any](ttl time.Duration, now func() time.Time) *sessionStore[T] {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &sessionStore[T]{
		entries: make(map[string]*sessionEntry[T]),
		ttl:     ttl,
		now:     now,
	}
}

func (s *sessionStore[T]) put(value T) string {
	id := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[id] = &sessionEntry[T]{value: value, touched: s.now()}

	return id
}

// with runs fn holding the session lock and marks the session as used.
func (s *sessionStore[T]) with(id string, fn func(T) error) error {
	s.mu.Lock()
	entry, ok := s.entries[id]

	if ok && s.expired(entry) {
		delete(s.entries, id)
		s.mu.Unlock()

		return notFound("session", "SESSION_EXPIRED", id, ErrSessionExpired)
	}
	s.mu.Unlock()

	if !ok {
		return notFound("session", "SESSION_NOT_FOUND", id, ErrSessionNotFound)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.touched = s.now()

	return fn(entry.value)
}

func (s *sessionStore[T]) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[id]
	delete(s.entries, id)

	return ok
}

func (s *sessionStore[T]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// sweep drops sessions idle longer than the ttl and returns how many.
func (s *sessionStore[T]) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0

	for id, entry := range s.entries {
		if s.expired(entry) {
			delete(s.entries, id)

			removed++
		}
	}

	return removed
}

func (s *sessionStore[T]) expired(entry *sessionEntry[T]) bool {
	if !entry.mu.TryLock() {
		return false
	}
	defer entry.mu.Unlock()

	return s.now().Sub(entry.touched) > s.ttl
}
