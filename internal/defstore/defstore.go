// Package defstore persists named sets of mapping definitions in SQLite.
package defstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
	"go.uber.org/zap"

	"crossmap/internal/discover"
	"crossmap/internal/mapping"
)

// ErrNotFound is returned for set names that were never saved.
var ErrNotFound = errors.New("definition set not found")

const schema = `
CREATE TABLE IF NOT EXISTS definition_sets (
	name       TEXT PRIMARY KEY,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS definitions (
	set_name      TEXT    NOT NULL,
	position      INTEGER NOT NULL,
	name          TEXT    NOT NULL DEFAULT '',
	source_alias  TEXT    NOT NULL,
	source_column TEXT    NOT NULL,
	target_alias  TEXT    NOT NULL,
	target_column TEXT    NOT NULL,
	label         TEXT    NOT NULL DEFAULT '',
	origin        TEXT    NOT NULL,
	confidence    REAL    NOT NULL,
	match_type    TEXT    NOT NULL DEFAULT '',
	value_map     TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (set_name, position)
);
`

// SetInfo summarizes one saved set.
type SetInfo struct {
	Name        string    `json:"name"`
	Definitions int       `json:"definitions"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store is a SQLite-backed definition store. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open definition store: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open definition store %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate definition store: %w", err)
	}

	log.Debug("definition store opened", zap.String("path", path))

	return &Store{db: db, log: log}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the set called name with defs, keeping their order.
func (s *Store) Save(ctx context.Context, name string, defs []mapping.Definition) (err error) {
	if name == "" {
		return errors.New("definition set name is empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM definitions WHERE set_name = ?`, name); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO definition_sets (name, updated_at) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET updated_at = excluded.updated_at`,
		name, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO definitions
		(set_name, position, name, source_alias, source_column, target_alias, target_column,
		 label, origin, confidence, match_type, value_map)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, d := range defs {
		values, err := encodeValues(d.Values)
		if err != nil {
			return fmt.Errorf("definition %s: %w", d.Key(), err)
		}

		_, err = stmt.ExecContext(ctx, name, i, d.Name,
			d.Source.Alias, d.Source.Column, d.Target.Alias, d.Target.Column,
			d.Label, string(d.Origin), d.Confidence, string(d.MatchType), values)
		if err != nil {
			return fmt.Errorf("definition %s: %w", d.Key(), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	s.log.Info("definition set saved", zap.String("set", name), zap.Int("definitions", len(defs)))

	return nil
}

// Load returns the definitions of the set called name in saved order.
func (s *Store) Load(ctx context.Context, name string) ([]mapping.Definition, error) {
	var exists int

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM definition_sets WHERE name = ?`, name).Scan(&exists)
	if err != nil {
		return nil, err
	}

	if exists == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name, source_alias, source_column, target_alias, target_column,
		label, origin, confidence, match_type, value_map
		FROM definitions WHERE set_name = ? ORDER BY position`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	defs := []mapping.Definition{}

	for rows.Next() {
		var (
			d                 mapping.Definition
			origin, matchType string
			values            string
		)

		err := rows.Scan(&d.Name, &d.Source.Alias, &d.Source.Column, &d.Target.Alias, &d.Target.Column,
			&d.Label, &origin, &d.Confidence, &matchType, &values)
		if err != nil {
			return nil, err
		}

		d.Origin = mapping.Origin(origin)
		d.MatchType = discover.MatchType(matchType)

		if d.Values, err = decodeValues(values); err != nil {
			return nil, fmt.Errorf("definition %s: %w", d.Key(), err)
		}

		defs = append(defs, d)
	}

	return defs, rows.Err()
}

// List returns every saved set ordered by name.
func (s *Store) List(ctx context.Context) ([]SetInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT s.name, s.updated_at, COUNT(d.position)
		FROM definition_sets s LEFT JOIN definitions d ON d.set_name = s.name
		GROUP BY s.name, s.updated_at ORDER BY s.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SetInfo

	for rows.Next() {
		var (
			info    SetInfo
			updated string
		)

		if err := rows.Scan(&info.Name, &updated, &info.Definitions); err != nil {
			return nil, err
		}

		if info.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
			return nil, fmt.Errorf("set %q: %w", info.Name, err)
		}

		out = append(out, info)
	}

	return out, rows.Err()
}

// Delete removes the set called name.
func (s *Store) Delete(ctx context.Context, name string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM definition_sets WHERE name = ?`, name)
	if err != nil {
		return err
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM definitions WHERE set_name = ?`, name); err != nil {
		return err
	}

	return tx.Commit()
}

func encodeValues(values map[string]string) (string, error) {
	if len(values) == 0 {
		return "", nil
	}

	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func decodeValues(s string) (map[string]string, error) {
	if s == "" {
		return nil, nil
	}

	var values map[string]string
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		return nil, err
	}

	return values, nil
}
