// Package archive stores per-update simulation snapshots in a single SQLite file.
//
// A snapshot archive holds named scalar attributes and named 2-D datasets. Datasets
// that change over time are keyed by (group, update); static datasets use update
// Static. Cell values are packed little-endian in a BLOB next to their shape and
// element type.
//
// Readers must blank-import a database/sql driver named "sqlite"; this package
// imports modernc.org/sqlite for that.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// Group names and attributes written by the simulation.
const (
	GroupLive  = "Live"
	GroupDeath = "Death"
	GroupShare = "TotalContribute"
	GroupIndex = "Index/own"
	AttrLevels = "NLEV"

	// Static is the update key of datasets that do not change over time.
	Static = -1
)

// ChannelGroup names the channel identity dataset for a level.
func ChannelGroup(level int) string { return "Channel/lev_" + strconv.Itoa(level) }

var (
	ErrNotFound = errors.New("archive: not found")
	ErrCorrupt  = errors.New("archive: corrupt data")
	ErrShape    = errors.New("archive: bad grid shape")
	ErrExists   = errors.New("archive: already exists")
)

const schema = `
CREATE TABLE IF NOT EXISTS attrs (
	name  TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS datasets (
	grp    TEXT    NOT NULL,
	upd    INTEGER NOT NULL,
	height INTEGER NOT NULL,
	width  INTEGER NOT NULL,
	dtype  INTEGER NOT NULL,
	data   BLOB    NOT NULL,
	PRIMARY KEY (grp, upd)
);`

// Store is an open snapshot archive. It is safe for concurrent readers.
type Store struct {
	db       *sql.DB
	path     string
	readOnly bool
}

var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

// dsn builds a file: URI so that '?' and '#' in archive names stay part of the path.
func dsn(path, query string) string {
	uri := "file:" + uriEscaper.Replace(path)
	if query != "" {
		uri += "?" + query
	}
	return uri
}

// Open opens an existing archive read-only.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("archive: stat %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", dsn(path, "_pragma=query_only(1)&_pragma=busy_timeout(10000)"))
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: open %s: %w", path, err)
	}
	var n int
	if err := db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name IN ('attrs', 'datasets')`).Scan(&n); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	if n != 2 {
		db.Close()
		return nil, fmt.Errorf("%w: %s is not a snapshot archive", ErrCorrupt, path)
	}
	return &Store{db: db, path: path, readOnly: true}, nil
}

// Create makes a new, empty archive at path. It refuses to overwrite.
func Create(path string) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, path)
	}
	db, err := sql.Open("sqlite", dsn(path, ""))
	if err != nil {
		return nil, fmt.Errorf("archive: create %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: create %s: schema: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the file the store was opened from.
func (s *Store) Path() string { return s.path }

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Attr returns a raw attribute value.
func (s *Store) Attr(ctx context.Context, name string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM attrs WHERE name = ?`, name).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: attribute %s in %s", ErrNotFound, name, s.path)
	}
	if err != nil {
		return "", fmt.Errorf("archive: attribute %s: %w", name, err)
	}
	return v, nil
}

// SetAttr writes an attribute.
func (s *Store) SetAttr(ctx context.Context, name, value string) error {
	if s.readOnly {
		return fmt.Errorf("archive: %s is read-only", s.path)
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO attrs (name, value) VALUES (?, ?)`, name, value)
	if err != nil {
		return fmt.Errorf("archive: set attribute %s: %w", name, err)
	}
	return nil
}

// Levels returns the number of channel levels (NLEV), which is always at least 1.
func (s *Store) Levels(ctx context.Context) (int, error) {
	v, err := s.Attr(ctx, AttrLevels)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s=%q in %s", ErrCorrupt, AttrLevels, v, s.path)
	}
	return n, nil
}

// PopulationSize is the number of tracked cell slots, the element count of Index/own.
func (s *Store) PopulationSize(ctx context.Context) (int, error) {
	var h, w int
	err := s.db.QueryRowContext(ctx,
		`SELECT height, width FROM datasets WHERE grp = ? AND upd = ?`, GroupIndex, Static,
	).Scan(&h, &w)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: dataset %s in %s", ErrNotFound, GroupIndex, s.path)
	}
	if err != nil {
		return 0, fmt.Errorf("archive: population size: %w", err)
	}
	return h * w, nil
}

// Updates lists the update keys stored for group, ascending.
func (s *Store) Updates(ctx context.Context, group string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT upd FROM datasets WHERE grp = ? AND upd >= 0 ORDER BY upd`, group)
	if err != nil {
		return nil, fmt.Errorf("archive: list %s: %w", group, err)
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var u int
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("archive: list %s: %w", group, err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Live returns the liveness grid of an update.
func (s *Store) Live(ctx context.Context, update int) (*Grid[bool], error) {
	return ReadGrid[bool](ctx, s, GroupLive, update)
}

// Death returns the death-cause code grid of an update.
func (s *Store) Death(ctx context.Context, update int) (*Grid[int64], error) {
	return ReadGrid[int64](ctx, s, GroupDeath, update)
}

// Share returns the resource-share grid of an update.
func (s *Store) Share(ctx context.Context, update int) (*Grid[float64], error) {
	return ReadGrid[float64](ctx, s, GroupShare, update)
}

// Channel returns the channel identity grid of a level at an update.
func (s *Store) Channel(ctx context.Context, level, update int) (*Grid[uint64], error) {
	return ReadGrid[uint64](ctx, s, ChannelGroup(level), update)
}

// ReadGrid reads a dataset and checks its element type.
func ReadGrid[T Cell](ctx context.Context, s *Store, group string, update int) (*Grid[T], error) {
	var (
		h, w int
		dt   uint8
		data []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT height, width, dtype, data FROM datasets WHERE grp = ? AND upd = ?`, group, update,
	).Scan(&h, &w, &dt, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s[upd_%d] in %s", ErrNotFound, group, update, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("archive: read %s[upd_%d]: %w", group, update, err)
	}
	g, err := decodeGrid[T](h, w, DType(dt), data)
	if err != nil {
		return nil, fmt.Errorf("%s[upd_%d] in %s: %w", group, update, s.path, err)
	}
	return g, nil
}

// PutGrid writes a dataset, replacing any previous one with the same key.
func PutGrid[T Cell](ctx context.Context, s *Store, group string, update int, g *Grid[T]) error {
	if s.readOnly {
		return fmt.Errorf("archive: %s is read-only", s.path)
	}
	data, err := encodeGrid(g)
	if err != nil {
		return fmt.Errorf("%s[upd_%d]: %w", group, update, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO datasets (grp, upd, height, width, dtype, data) VALUES (?, ?, ?, ?, ?, ?)`,
		group, update, g.Height, g.Width, uint8(dtypeOf[T]()), data,
	)
	if err != nil {
		return fmt.Errorf("archive: write %s[upd_%d]: %w", group, update, err)
	}
	return nil
}

// PutIndex writes the static Index/own dataset, which fixes the population size.
func (s *Store) PutIndex(ctx context.Context, ids []uint64) error {
	return PutGrid(ctx, s, GroupIndex, Static, &Grid[uint64]{Height: 1, Width: len(ids), Data: ids})
}
