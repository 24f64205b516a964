package session

import (
	"context"
	"errors"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestMemoryStore_PutGet(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	in := &State{FileName: "a.csv", FileID: "abc", Data: []byte("x\n1\n")}
	if err := store.Put(ctx, "s1", in); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FileName != "a.csv" || got.FileID != "abc" || string(got.Data) != "x\n1\n" {
		t.Errorf("Get = %+v, want stored values", got)
	}
	if got.HasSelection {
		t.Error("HasSelection = true before any selection was stored")
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
}

func TestMemoryStore_IsolatesCopies(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	in := &State{FileID: "f", Selection: []string{"a", "b"}, HasSelection: true}
	_ = store.Put(ctx, "s1", in)
	in.Selection[0] = "mutated"

	got, _ := store.Get(ctx, "s1")
	if got.Selection[0] != "a" {
		t.Errorf("stored selection changed through caller slice: %v", got.Selection)
	}

	got.Selection[1] = "mutated"
	again, _ := store.Get(ctx, "s1")
	if again.Selection[1] != "b" {
		t.Errorf("stored selection changed through returned slice: %v", again.Selection)
	}
}

func TestMemoryStore_EmptySelectionIsKept(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	_ = store.Put(ctx, "s1", &State{Selection: []string{}, HasSelection: true})

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.HasSelection || len(got.Selection) != 0 {
		t.Errorf("got HasSelection=%v Selection=%v, want explicit empty selection", got.HasSelection, got.Selection)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_ = store.Put(ctx, "old", &State{FileID: "1"})
	now = now.Add(30 * time.Second)
	_ = store.Put(ctx, "new", &State{FileID: "2"})
	now = now.Add(45 * time.Second)

	if _, err := store.Get(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired Get error = %v, want ErrNotFound", err)
	}
	if _, err := store.Get(ctx, "new"); err != nil {
		t.Errorf("live Get error = %v", err)
	}

	if removed := store.Sweep(); removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1", store.Len())
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	_ = store.Put(ctx, "s1", &State{FileID: "f"})
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrNotFound", err)
	}
}

func TestStartSweeper_StopsOnCancel(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		store.StartSweeper(ctx, 5*time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestLock_SerializesPerSession(t *testing.T) {
	store := NewMemoryStore(time.Hour)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := store.Lock("s1")
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxSeen)
	}
	if n := store.size(); n != 0 {
		t.Errorf("lock table size = %d after all unlocks, want 0", n)
	}
}

func TestLock_DifferentSessionsDoNotBlock(t *testing.T) {
	store := NewMemoryStore(time.Hour)

	unlockA := store.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := store.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on another session blocked")
	}
}

func TestLock_UnlockIsIdempotent(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	unlock := store.Lock("a")
	unlock()
	unlock()

	relock := store.Lock("a")
	relock()
}

func TestIDs(t *testing.T) {
	id := NewID()
	if !ValidID(id) {
		t.Errorf("ValidID(%q) = false", id)
	}
	if NewID() == id {
		t.Error("NewID returned the same id twice")
	}
	for _, bad := range []string{"", "not-a-uuid", "../etc"} {
		if ValidID(bad) {
			t.Errorf("ValidID(%q) = true", bad)
		}
	}
}

func TestContextID(t *testing.T) {
	ctx := context.Background()
	if got := IDFromContext(ctx); got != "" {
		t.Errorf("IDFromContext(empty) = %q", got)
	}
	ctx = ContextWithID(ctx, "abc")
	if got := IDFromContext(ctx); got != "abc" {
		t.Errorf("IDFromContext = %q, want abc", got)
	}
}

func TestStateHasFile(t *testing.T) {
	var nilState *State
	if nilState.HasFile() {
		t.Error("nil state reports a file")
	}
	if (&State{}).HasFile() {
		t.Error("empty state reports a file")
	}
	if !(&State{FileID: "x"}).HasFile() {
		t.Error("state with file id reports no file")
	}
}

// TestPostgresStore runs against a real database when
// CSVDASH_TEST_DATABASE_URL is set.
func TestPostgresStore(t *testing.T) {
	url := os.Getenv("CSVDASH_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CSVDASH_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	store := NewPostgresStore(pool, time.Hour)
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	id := NewID()
	defer store.Delete(ctx, id)

	if _, err := store.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(new) error = %v, want ErrNotFound", err)
	}

	if err := store.Put(ctx, id, &State{FileName: "a.csv", FileID: "f", Data: []byte("a\n1\n")}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.HasSelection {
		t.Error("HasSelection = true, want NULL filtros to read as absent")
	}

	got.Selection = []string{}
	got.HasSelection = true
	if err := store.Put(ctx, id, got); err != nil {
		t.Fatalf("Put selection: %v", err)
	}
	got, err = store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.HasSelection || len(got.Selection) != 0 {
		t.Errorf("got HasSelection=%v Selection=%v, want explicit empty selection", got.HasSelection, got.Selection)
	}

	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_GetRenewsExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_ = store.Put(ctx, "s1", &State{FileID: "f", Selection: []string{"a"}, HasSelection: true})

	// Reads alone keep the session alive well past one TTL.
	for i := 0; i < 5; i++ {
		now = now.Add(45 * time.Second)
		got, err := store.Get(ctx, "s1")
		if err != nil {
			t.Fatalf("Get after %d reads: %v", i, err)
		}
		if !got.UpdatedAt.Equal(now) {
			t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, now)
		}
	}

	now = now.Add(61 * time.Second)
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("idle Get error = %v, want ErrNotFound", err)
	}
}

func TestSelectionEncoding(t *testing.T) {
	tests := []struct {
		name  string
		state State
		raw   string // "" means NULL
	}{
		{"no selection is NULL", State{Selection: []string{"a"}}, ""},
		{"empty selection", State{HasSelection: true}, "[]"},
		{"explicit empty slice", State{Selection: []string{}, HasSelection: true}, "[]"},
		{"columns keep order", State{Selection: []string{"b", "a"}, HasSelection: true}, `["b","a"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := encodeSelection(&tt.state)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if tt.raw == "" {
				if raw != nil {
					t.Fatalf("encode = %s, want NULL", raw)
				}
			} else if string(raw) != tt.raw {
				t.Fatalf("encode = %s, want %s", raw, tt.raw)
			}

			got := State{Selection: []string{"stale"}, HasSelection: true}
			if err := decodeSelection(raw, &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.HasSelection != tt.state.HasSelection {
				t.Errorf("HasSelection = %v, want %v", got.HasSelection, tt.state.HasSelection)
			}
			if tt.state.HasSelection && len(tt.state.Selection) > 0 && !slices.Equal(got.Selection, tt.state.Selection) {
				t.Errorf("Selection = %v, want %v", got.Selection, tt.state.Selection)
			}
			if got.HasSelection && got.Selection == nil {
				t.Error("decoded selection is nil, want non-nil slice")
			}
		})
	}
}

func TestDecodeSelection_Invalid(t *testing.T) {
	var st State
	err := decodeSelection([]byte(`{"a":1}`), &st)
	if err == nil || !strings.Contains(err.Error(), "decode filtros") {
		t.Errorf("error = %v, want decode filtros error", err)
	}
}
