package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/csvdash/internal/frame"
	"github.com/JonMunkholm/csvdash/internal/session"
)

// ResolveSelection returns the column selection for a session.
//
// The first time a session sees a table the selection is initialized to
// every column and persisted. After that the stored selection is returned,
// narrowed to the columns t actually has and put in t's order. The stored
// value itself is not rewritten here.
func ResolveSelection(ctx context.Context, store session.Store, sessionID string, t *frame.Table) ([]string, error) {
	state, err := store.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		state = &session.State{}
	} else if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if state.HasSelection {
		return t.Order(state.Selection), nil
	}

	state.Selection = t.Columns()
	state.HasSelection = true
	if err := store.Put(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("save %s: %w", session.SelectionKey, err)
	}
	return state.Selection, nil
}

// UpdateSelection stores the columns the user submitted. Names t does not
// have are dropped and the rest are put in t's order. An empty selection is
// stored as such.
func UpdateSelection(ctx context.Context, store session.Store, sessionID string, t *frame.Table, cols []string) ([]string, error) {
	state, err := store.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		state = &session.State{}
	} else if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	state.Selection = t.Order(cols)
	state.HasSelection = true
	if err := store.Put(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("save %s: %w", session.SelectionKey, err)
	}
	return state.Selection, nil
}
