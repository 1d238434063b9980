package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"crossmap/internal/common"
	"crossmap/internal/discover"
	"crossmap/internal/hierarchy"
	"crossmap/internal/match"
	"crossmap/internal/table"
)

// Options are the defaults applied to every session of a Store.
type Options struct {
	Discovery discover.Options
	Hierarchy hierarchy.Options
	// Threshold is the minimum confidence of a definition, and the minimum
	// score of a fuzzy value match, used by rollups.
	Threshold float64
}

// DefaultOptions returns the default session settings.
func DefaultOptions() Options {
	return Options{
		Discovery: discover.DefaultOptions(),
		Threshold: match.DefaultThreshold,
	}
}

// Store is a registry of named sessions. It is safe for concurrent use.
type Store struct {
	loader table.Loader
	log    *zap.Logger
	opts   Options

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore returns an empty store. A nil log discards output.
func NewStore(loader table.Loader, log *zap.Logger, opts Options) *Store {
	if log == nil {
		log = zap.NewNop()
	}

	if opts.Threshold <= 0 || opts.Threshold > 1 {
		opts.Threshold = match.DefaultThreshold
	}

	return &Store{
		loader:   loader,
		log:      log,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Create loads every table in specs and registers the session under name.
// An existing session with the same name is replaced and released. Nothing
// is registered when any table fails to load.
func (s *Store) Create(ctx context.Context, name string, specs []table.Spec) (*Session, error) {
	log := s.log.With(zap.String("context", name))
	started := time.Now()

	tables := make([]*table.Table, 0, len(specs))
	seen := make(map[string]struct{}, len(specs))

	for _, spec := range specs {
		spec = spec.WithDefaults()

		if err := ctx.Err(); err != nil {
			return nil, &LoadError{Context: name, Alias: spec.Alias, Path: spec.Path, Err: err}
		}

		if _, dup := seen[spec.Alias]; dup {
			return nil, &LoadError{Context: name, Alias: spec.Alias, Path: spec.Path, Err: ErrDuplicateAlias}
		}

		seen[spec.Alias] = struct{}{}

		t, err := s.loader.Load(spec)
		if err != nil {
			log.Warn("table load failed", zap.String("alias", spec.Alias), zap.String("path", spec.Path), zap.Error(err))

			return nil, &LoadError{Context: name, Alias: spec.Alias, Path: spec.Path, Err: err}
		}

		log.Debug("table loaded", zap.String("alias", t.Alias), zap.String("path", t.Path), zap.Int("rows", t.Len()))

		tables = append(tables, t)
	}

	sess := newSession(name, tables, s.opts, log)

	s.mu.Lock()
	old := s.sessions[name]
	s.sessions[name] = sess
	s.mu.Unlock()

	if old != nil {
		old.release()
		log.Info("context replaced", zap.Stringer("previous", old.ID))
	}

	log.Info("context created",
		zap.Stringer("id", sess.ID),
		zap.Int("tables", len(tables)),
		zap.Duration("elapsed", time.Since(started)))

	return sess, nil
}

// Add registers already loaded tables as a session, replacing any session
// with the same name.
func (s *Store) Add(name string, tables ...*table.Table) (*Session, error) {
	seen := make(map[string]struct{}, len(tables))

	for _, t := range tables {
		if _, dup := seen[t.Alias]; dup {
			return nil, &LoadError{Context: name, Alias: t.Alias, Path: t.Path, Err: ErrDuplicateAlias}
		}

		seen[t.Alias] = struct{}{}
	}

	sess := newSession(name, tables, s.opts, s.log.With(zap.String("context", name)))

	s.mu.Lock()
	old := s.sessions[name]
	s.sessions[name] = sess
	s.mu.Unlock()

	if old != nil {
		old.release()
	}

	return sess, nil
}

// Get returns the session registered under name.
func (s *Store) Get(name string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}

	return sess, nil
}

// Unload removes the session and releases its tables.
func (s *Store) Unload(name string) error {
	s.mu.Lock()
	sess, ok := s.sessions[name]
	delete(s.sessions, name)
	s.mu.Unlock()

	if !ok {
		return &NotFoundError{Name: name}
	}

	sess.release()
	s.log.Info("context unloaded", zap.String("context", name))

	return nil
}

// List returns the registered names in sorted order.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return common.SortedKeys(s.sessions)
}

// Close unloads every session.
func (s *Store) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, name := range common.SortedKeys(sessions) {
		sessions[name].release()
	}
}
