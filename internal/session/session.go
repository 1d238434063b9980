package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crossmap/internal/discover"
	"crossmap/internal/hierarchy"
	"crossmap/internal/mapping"
	"crossmap/internal/table"
)

// Session is one named mapping context. It is safe for concurrent use.
type Session struct {
	ID      uuid.UUID
	Name    string
	Created time.Time

	log  *zap.Logger
	opts Options

	mu       sync.RWMutex
	released bool
	order    []string
	tables   mapping.Tables
	profiles map[string][]table.ColumnProfile
	defs     *mapping.Set
	forest   *hierarchy.Forest
}

func newSession(name string, tables []*table.Table, opts Options, log *zap.Logger) *Session {
	s := &Session{
		ID:       uuid.New(),
		Name:     name,
		Created:  time.Now(),
		log:      log,
		opts:     opts,
		tables:   make(mapping.Tables, len(tables)),
		profiles: make(map[string][]table.ColumnProfile, len(tables)),
		defs:     mapping.NewSet(),
	}

	for _, t := range tables {
		s.order = append(s.order, t.Alias)
		s.tables[t.Alias] = t
		s.profiles[t.Alias] = t.Profile(opts.Discovery.SampleLimit)
	}

	return s
}

func (s *Session) release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.released = true
	s.tables = nil
	s.profiles = nil
	s.defs = mapping.NewSet()
	s.forest = nil
}

// Tables returns the loaded tables in load order.
func (s *Session) Tables() ([]*table.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.released {
		return nil, ErrUnloaded
	}

	return s.tableList(), nil
}

// tableList must be called with s.mu held.
func (s *Session) tableList() []*table.Table {
	out := make([]*table.Table, len(s.order))
	for i, alias := range s.order {
		out[i] = s.tables[alias]
	}

	return out
}

// TablesByRole returns the tables loaded with role, in load order.
func (s *Session) TablesByRole(role string) ([]*table.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.released {
		return nil, ErrUnloaded
	}

	var out []*table.Table

	for _, t := range s.tableList() {
		if t.Role == role {
			out = append(out, t)
		}
	}

	return out, nil
}

// Table returns the table loaded under alias.
func (s *Session) Table(alias string) (*table.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.table(alias)
}

// table must be called with s.mu held.
func (s *Session) table(alias string) (*table.Table, error) {
	if s.released {
		return nil, ErrUnloaded
	}

	t, ok := s.tables[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, alias)
	}

	return t, nil
}

// Profiles returns the column profiles taken at load time, tables in load
// order and columns in file order.
func (s *Session) Profiles() ([]table.ColumnProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.released {
		return nil, ErrUnloaded
	}

	var out []table.ColumnProfile
	for _, alias := range s.order {
		out = append(out, s.profiles[alias]...)
	}

	return out, nil
}

// AttachMapping validates every definition against the loaded tables and
// then stores them. Nothing is stored when one definition is invalid or
// references an unknown column. An empty origin means explicit, and explicit
// definitions always carry confidence 1. A discovered definition never
// replaces an explicit one for the same column pair; an explicit one always
// replaces what is there.
func (s *Session) AttachMapping(defs ...mapping.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return ErrUnloaded
	}

	prepared := make([]mapping.Definition, len(defs))

	for i, d := range defs {
		p, err := mapping.Prepare(d, s.tables)
		if err != nil {
			return err
		}

		prepared[i] = p
	}

	for _, d := range prepared {
		if !s.defs.Put(d) {
			s.log.Debug("discovered definition kept behind explicit one", zap.Stringer("key", d.Key()))
		}
	}

	return nil
}

// Detach removes the definition for k and reports whether there was one.
func (s *Session) Detach(k mapping.Key) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return false, ErrUnloaded
	}

	return s.defs.Delete(k), nil
}

// Definitions returns the attached definitions in key order.
func (s *Session) Definitions() ([]mapping.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.released {
		return nil, ErrUnloaded
	}

	return s.defs.All(), nil
}

// AttachHierarchy stores a built forest for later rollups, replacing any
// previous one.
func (s *Session) AttachHierarchy(f *hierarchy.Forest) error {
	if f == nil {
		return errors.New("nil hierarchy forest")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return ErrUnloaded
	}

	s.forest = f
	s.log.Info("hierarchy attached", zap.Int("nodes", f.Len()), zap.Int("roots", len(f.Roots())))

	return nil
}

// BuildHierarchy builds a forest from the rows of a loaded table and
// attaches it. A failed build leaves the current forest in place.
func (s *Session) BuildHierarchy(alias string, cols hierarchy.Columns, opts *hierarchy.Options) (*hierarchy.Forest, error) {
	t, err := s.Table(alias)
	if err != nil {
		return nil, err
	}

	rows, err := hierarchy.RowsFromTable(t, cols)
	if err != nil {
		return nil, err
	}

	if opts == nil {
		opts = &s.opts.Hierarchy
	}

	f, err := hierarchy.Build(rows, *opts)
	if err != nil {
		s.log.Warn("hierarchy build failed", zap.String("alias", alias), zap.Error(err))
		return nil, err
	}

	if err := s.AttachHierarchy(f); err != nil {
		return nil, err
	}

	return f, nil
}

// Hierarchy returns the attached forest.
func (s *Session) Hierarchy() (*hierarchy.Forest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.released {
		return nil, ErrUnloaded
	}

	if s.forest == nil {
		return nil, ErrNoHierarchy
	}

	return s.forest, nil
}

// Discover runs a discovery pass over the loaded tables, matching the column
// profiles taken at load time. It never changes the session; see Adopt. A
// nil opts uses the store defaults.
func (s *Session) Discover(ctx context.Context, source string, opts *discover.Options) (discover.Result, error) {
	s.mu.RLock()

	if s.released {
		s.mu.RUnlock()
		return discover.Result{}, ErrUnloaded
	}

	tables := s.tableList()
	profiles := s.profiles
	s.mu.RUnlock()

	if opts == nil {
		opts = &s.opts.Discovery
	}

	o := *opts
	if o.Log == nil {
		o.Log = s.log
	}

	if o.Profiles == nil {
		o.Profiles = profiles
	}

	return discover.Discover(ctx, tables, source, o)
}

// Compare reports the gap between a source category column and a report
// line-item column of two loaded tables. A nil opts uses the store defaults.
func (s *Session) Compare(source, sourceColumn, report, reportColumn string, opts *discover.Options) (discover.Gap, error) {
	s.mu.RLock()

	src, err := s.table(source)
	if err != nil {
		s.mu.RUnlock()
		return discover.Gap{}, err
	}

	rep, err := s.table(report)
	s.mu.RUnlock()

	if err != nil {
		return discover.Gap{}, err
	}

	if opts == nil {
		opts = &s.opts.Discovery
	}

	o := *opts
	if o.Log == nil {
		o.Log = s.log
	}

	return discover.CompareStructures(src, sourceColumn, rep, reportColumn, o)
}

// Adopt attaches each candidate as a discovered definition and returns how
// many were stored. Candidates already covered by an explicit definition
// are skipped.
func (s *Session) Adopt(candidates discover.CandidateList) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return 0, ErrUnloaded
	}

	stored := 0

	for _, c := range candidates {
		d, err := mapping.Prepare(mapping.FromCandidate(c), s.tables)
		if err != nil {
			s.log.Debug("candidate skipped", zap.Stringer("key", d.Key()), zap.Error(err))
			continue
		}

		if s.defs.Put(d) {
			stored++
		}
	}

	s.log.Info("candidates adopted", zap.Int("candidates", len(candidates)), zap.Int("stored", stored))

	return stored, nil
}
