package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/csvdash/internal/chart"
	"github.com/JonMunkholm/csvdash/internal/frame"
	"github.com/JonMunkholm/csvdash/internal/session"
)

var (
	// ErrNoFile is returned by operations that need an uploaded file.
	ErrNoFile = errors.New("no file provided")

	// ErrFileTooLarge is returned when an upload exceeds MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")
)

// Options configure a Service.
type Options struct {
	CacheSize     int
	MaxConcurrent int
	MaxWait       time.Duration
	MaxFileSize   int64
	Progress      Progress
}

// Service runs the dashboard pipeline for one session at a time.
type Service struct {
	store    session.Store
	cache    *TableCache
	limiter  *IngestLimiter
	progress Progress
	maxSize  int64
}

// NewService creates a Service backed by store.
func NewService(store session.Store, opts Options) (*Service, error) {
	cache, err := NewTableCache(opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create table cache: %w", err)
	}
	return &Service{
		store:    store,
		cache:    cache,
		limiter:  NewIngestLimiter(opts.MaxConcurrent, opts.MaxWait),
		progress: opts.Progress,
		maxSize:  opts.MaxFileSize,
	}, nil
}

// Upload parses a file and makes it the session's current file.
// The column selection is left as it is.
func (s *Service) Upload(ctx context.Context, sessionID, name string, data []byte) (*frame.Table, error) {
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, len(data), s.maxSize)
	}

	unlock := s.store.Lock(sessionID)
	defer unlock()

	t, err := s.table(ctx, name, data)
	if err != nil {
		return nil, err
	}

	state, err := s.state(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	state.FileName = name
	state.FileID = FileID(name, data)
	state.Data = data
	if err := s.store.Put(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	slog.Info("file uploaded",
		"session_id", sessionID,
		"file", name,
		"rows", t.Rows(),
		"columns", t.Width(),
	)
	return t, nil
}

// Run is one rerun of the page for a session.
// Without an uploaded file the view only has HasFile unset.
func (s *Service) Run(ctx context.Context, sessionID string, in Inputs) (*View, error) {
	unlock := s.store.Lock(sessionID)
	defer unlock()

	state, t, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return &View{}, nil
	}

	selection, err := ResolveSelection(ctx, s.store, sessionID, t)
	if err != nil {
		return nil, err
	}

	done, err := s.progress.Run(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("progress: %w", err)
	}

	view, err := Pipeline(t, selection, in)
	view.FileName = state.FileName
	view.Progress = s.progress.Percent(done)
	return view, err
}

// SelectColumns stores the columns the user picked.
func (s *Service) SelectColumns(ctx context.Context, sessionID string, cols []string) ([]string, error) {
	unlock := s.store.Lock(sessionID)
	defer unlock()

	_, t, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNoFile
	}
	return UpdateSelection(ctx, s.store, sessionID, t, cols)
}

// Filtered returns the session's table projected onto its selection.
// Unlike Run it never writes the session.
func (s *Service) Filtered(ctx context.Context, sessionID string) (*frame.Table, error) {
	unlock := s.store.Lock(sessionID)
	defer unlock()

	state, t, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNoFile
	}
	if !state.HasSelection {
		return t, nil
	}
	return t.Select(state.Selection), nil
}

// Metrics summarizes the session's filtered table.
func (s *Service) Metrics(ctx context.Context, sessionID string) (frame.Metrics, error) {
	t, err := s.Filtered(ctx, sessionID)
	if err != nil {
		return frame.Metrics{}, err
	}
	return frame.ComputeMetrics(t), nil
}

// Figure plans one chart over the session's filtered table. Column choices
// that are not part of the selection fall back to its first column.
func (s *Service) Figure(ctx context.Context, sessionID string, p chart.Params) (*chart.Figure, error) {
	t, err := s.Filtered(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	cols := t.Columns()
	p.Column = choose(p.Column, cols)
	p.X = choose(p.X, cols)
	p.Y = choose(p.Y, cols)

	req, err := chart.NewRequest(p)
	if err != nil {
		return nil, err
	}
	return chart.Plan(t, req)
}

// Reset forgets everything about a session.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	unlock := s.store.Lock(sessionID)
	defer unlock()

	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	return nil
}

// Status is the service state reported by the health endpoint.
type Status struct {
	Ingest LimiterStatus `json:"ingest"`
	Cache  CacheStats    `json:"cache"`
}

func (s *Service) Status() Status {
	return Status{Ingest: s.limiter.Status(), Cache: s.cache.Stats()}
}

// WaitForIngests blocks until in-flight parses finish. Used on shutdown.
func (s *Service) WaitForIngests(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// state loads a session, starting a fresh one when none exists.
func (s *Service) state(ctx context.Context, sessionID string) (*session.State, error) {
	state, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return &session.State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return state, nil
}

// load returns the session and its table. The table is nil when no file
// has been uploaded.
func (s *Service) load(ctx context.Context, sessionID string) (*session.State, *frame.Table, error) {
	state, err := s.state(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if !state.HasFile() {
		return state, nil, nil
	}
	t, err := s.table(ctx, state.FileName, state.Data)
	if err != nil {
		return nil, nil, err
	}
	return state, t, nil
}

// table returns the parsed file, from the cache when possible.
func (s *Service) table(ctx context.Context, name string, data []byte) (*frame.Table, error) {
	id := FileID(name, data)
	if t, ok := s.cache.Get(id); ok {
		return t, nil
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()
	t, err := frame.IngestFile(name, data)
	if err != nil {
		return nil, err
	}
	s.cache.Add(id, t)

	slog.Debug("file parsed",
		"file", name,
		"rows", t.Rows(),
		"duration", time.Since(start),
	)
	return t, nil
}
