package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS csvdash_sessions (
	id         TEXT PRIMARY KEY,
	file_name  TEXT NOT NULL DEFAULT '',
	file_id    TEXT NOT NULL DEFAULT '',
	data       BYTEA,
	filtros    JSONB,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS csvdash_sessions_updated_at_idx ON csvdash_sessions (updated_at);
`

const (
	getSessionSQL = `
UPDATE csvdash_sessions SET updated_at = $3
WHERE id = $1 AND updated_at > $2
RETURNING file_name, file_id, data, filtros, updated_at`

	putSessionSQL = `
INSERT INTO csvdash_sessions (id, file_name, file_id, data, filtros, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
	file_name  = EXCLUDED.file_name,
	file_id    = EXCLUDED.file_id,
	data       = EXCLUDED.data,
	filtros    = EXCLUDED.filtros,
	updated_at = EXCLUDED.updated_at`

	deleteSessionSQL = `DELETE FROM csvdash_sessions WHERE id = $1`

	sweepSessionsSQL = `DELETE FROM csvdash_sessions WHERE updated_at <= $1`
)

// PostgresStore keeps sessions in the csvdash_sessions table so several
// server processes can share them. The selection is stored as JSONB in the
// filtros column; NULL means no selection has been made yet.
//
// Lock only serializes requests handled by this process.
type PostgresStore struct {
	*keyedMutex

	pool *pgxpool.Pool
	ttl  time.Duration
	now  func() time.Time
}

// NewPostgresStore wraps an open pool. Call EnsureSchema before first use.
func NewPostgresStore(pool *pgxpool.Pool, ttl time.Duration) *PostgresStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PostgresStore{
		keyedMutex: newKeyedMutex(),
		pool:       pool,
		ttl:        ttl,
		now:        time.Now,
	}
}

// EnsureSchema creates the sessions table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create session schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*State, error) {
	var (
		st      State
		filtros []byte
	)
	now := s.now()
	err := s.pool.QueryRow(ctx, getSessionSQL, id, now.Add(-s.ttl), now).
		Scan(&st.FileName, &st.FileID, &st.Data, &filtros, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if err := decodeSelection(filtros, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *PostgresStore) Put(ctx context.Context, id string, state *State) error {
	filtros, err := encodeSelection(state)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, putSessionSQL,
		id, state.FileName, state.FileID, state.Data, filtros, s.now())
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// encodeSelection returns the filtros column value for state: NULL when no
// selection was made, a JSON array otherwise (an empty one included).
func encodeSelection(state *State) ([]byte, error) {
	if !state.HasSelection {
		return nil, nil
	}
	sel := state.Selection
	if sel == nil {
		sel = []string{}
	}
	raw, err := json.Marshal(sel)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", SelectionKey, err)
	}
	return raw, nil
}

// decodeSelection fills st from a filtros column value.
func decodeSelection(raw []byte, st *State) error {
	st.Selection, st.HasSelection = nil, false
	if raw == nil {
		return nil
	}
	var sel []string
	if err := json.Unmarshal(raw, &sel); err != nil {
		return fmt.Errorf("decode %s: %w", SelectionKey, err)
	}
	if sel == nil {
		sel = []string{}
	}
	st.Selection, st.HasSelection = sel, true
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, deleteSessionSQL, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Sweep deletes expired sessions and returns how many were removed.
func (s *PostgresStore) Sweep(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, sweepSessionsSQL, s.now().Add(-s.ttl))
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (s *PostgresStore) StartSweeper(ctx context.Context, interval time.Duration) {
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
			n, err := s.Sweep(ctx)
			if err != nil {
				slog.Warn("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("expired sessions removed", "count", n)
			}
		}
	}
}
