// Package session keeps the per-user state the dashboard carries between
// reruns: the uploaded file and the column selection.
//
// A Store is keyed by an opaque session id handed to the browser in a
// cookie. Two backends exist: MemoryStore for a single process and
// PostgresStore for a shared database.
package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SelectionKey is the name the column selection is persisted under.
const SelectionKey = "filtros"

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// State is everything remembered for one session.
type State struct {
	FileName string
	FileID   string // content hash of the uploaded file
	Data     []byte // raw upload, kept so a cache miss can re-parse

	// Selection is meaningful only when HasSelection is set. An empty
	// selection the user chose is different from no selection at all.
	Selection    []string
	HasSelection bool

	UpdatedAt time.Time // last read or write
}

// HasFile reports whether a file has been uploaded in this session.
func (s *State) HasFile() bool {
	return s != nil && s.FileID != ""
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Data = slices.Clone(s.Data)
	if s.Selection != nil {
		out.Selection = slices.Clone(s.Selection)
	}
	return &out
}

// Store persists session state.
type Store interface {
	// Get returns the state for id, or ErrNotFound. A successful Get
	// renews the session's idle TTL.
	Get(ctx context.Context, id string) (*State, error)

	// Put creates or replaces the state for id.
	Put(ctx context.Context, id string, state *State) error

	// Delete removes id. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Lock serializes work on one session and returns the unlock func.
	Lock(id string) func()
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like one NewID produced.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

type contextKey string

const ctxKeySessionID contextKey = "session_id"

// ContextWithID adds the session id to ctx.
func ContextWithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID, id)
}

// IDFromContext extracts the session id from ctx.
func IDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeySessionID).(string); ok {
		return v
	}
	return ""
}

// keyedMutex hands out one mutex per key and forgets it once nobody holds
// or waits on it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.Unlock()
			k.mu.Lock()
			m.refs--
			if m.refs == 0 {
				delete(k.locks, key)
			}
			k.mu.Unlock()
		})
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
