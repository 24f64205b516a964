package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTTL is used when a store is created with a non-positive TTL.
const DefaultTTL = 24 * time.Hour

type memoryEntry struct {
	state   *State
	expires time.Time
}

// MemoryStore keeps sessions in process memory.
// Entries expire ttl after they were last read or written.
type MemoryStore struct {
	*keyedMutex

	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]memoryEntry
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		keyedMutex: newKeyedMutex(),
		ttl:        ttl,
		now:        time.Now,
		sessions:   make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*State, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok || !now.Before(e.expires) {
		return nil, ErrNotFound
	}
	e.state.UpdatedAt = now
	e.expires = now.Add(s.ttl)
	s.sessions[id] = e
	return e.state.Clone(), nil
}

func (s *MemoryStore) Put(_ context.Context, id string, state *State) error {
	now := s.now()
	stored := state.Clone()
	stored.UpdatedAt = now

	s.mu.Lock()
	s.sessions[id] = memoryEntry{state: stored, expires: now.Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.sessions {
		if !now.Before(e.expires) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (s *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Debug("expired sessions removed", "count", n)
			}
		}
	}
}
