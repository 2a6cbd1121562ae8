// Package catalog keeps a SQLite index of drawings: their version, layers,
// blocks and entity counts, so a collection of files can be searched
// without parsing them again.
package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tsawler/dxf/format"
	"github.com/tsawler/dxf/model"
	"github.com/tsawler/dxf/report"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when no drawing matches an id or path.
var ErrNotFound = errors.New("drawing not found")

// Drawing is one indexed file.
type Drawing struct {
	ID        string
	Path      string
	Version   format.Version
	Entities  int
	IndexedAt time.Time
}

// Catalog is an open index database.
type Catalog struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the index at path. ":memory:" gives a private
// in-memory index.
func Open(ctx context.Context, path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	// SQLite doesn't support multiple writers, and an in-memory database
	// exists once per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Catalog{db: db, now: time.Now}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Add indexes doc under path, replacing an earlier entry for the same
// path. The drawing gets a new id.
func (c *Catalog) Add(ctx context.Context, path string, doc *model.Document) (Drawing, error) {
	s := report.Summarize(doc)
	d := Drawing{
		ID:        generateUUID(),
		Path:      path,
		Version:   doc.Version,
		Entities:  s.Entities,
		IndexedAt: c.now().UTC(),
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return Drawing{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM drawings WHERE path = ?`, path); err != nil {
		return Drawing{}, fmt.Errorf("failed to replace %s: %w", path, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO drawings (id, path, version, entities, indexed_at) VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.Path, d.Version.String(), d.Entities, d.IndexedAt.Format(time.RFC3339Nano),
	); err != nil {
		return Drawing{}, fmt.Errorf("failed to insert drawing: %w", err)
	}
	for _, l := range s.Layers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO layers (drawing_id, name, color, linetype, entities) VALUES (?, ?, ?, ?, ?)`,
			d.ID, l.Name, l.Color, l.LineType, l.Entities,
		); err != nil {
			return Drawing{}, fmt.Errorf("failed to insert layer %s: %w", l.Name, err)
		}
	}
	for _, b := range s.Blocks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO blocks (drawing_id, name, entities, inserts) VALUES (?, ?, ?, ?)`,
			d.ID, b.Name, b.Entities, b.Inserts,
		); err != nil {
			return Drawing{}, fmt.Errorf("failed to insert block %s: %w", b.Name, err)
		}
	}
	for _, k := range s.Counts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entity_counts (drawing_id, type, count) VALUES (?, ?, ?)`,
			d.ID, k.Type, k.Count,
		); err != nil {
			return Drawing{}, fmt.Errorf("failed to insert entity count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Drawing{}, fmt.Errorf("failed to commit: %w", err)
	}
	return d, nil
}

// Get returns a drawing by id.
func (c *Catalog) Get(ctx context.Context, id string) (Drawing, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, path, version, entities, indexed_at FROM drawings WHERE id = ?`, id)
	d, err := scanDrawing(row)
	if err == sql.ErrNoRows {
		return Drawing{}, ErrNotFound
	}
	return d, err
}

// Lookup returns a drawing by path.
func (c *Catalog) Lookup(ctx context.Context, path string) (Drawing, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, path, version, entities, indexed_at FROM drawings WHERE path = ?`, path)
	d, err := scanDrawing(row)
	if err == sql.ErrNoRows {
		return Drawing{}, ErrNotFound
	}
	return d, err
}

// List returns every drawing ordered by path.
func (c *Catalog) List(ctx context.Context) ([]Drawing, error) {
	return c.query(ctx, `SELECT id, path, version, entities, indexed_at FROM drawings ORDER BY path`)
}

// FindByLayer returns the drawings defining a layer. Names are compared
// case-insensitively, as in DXF.
func (c *Catalog) FindByLayer(ctx context.Context, layer string) ([]Drawing, error) {
	return c.query(ctx, `SELECT d.id, d.path, d.version, d.entities, d.indexed_at
		FROM drawings d JOIN layers l ON l.drawing_id = d.id
		WHERE l.name = ? ORDER BY d.path`, layer)
}

// FindByBlock returns the drawings defining a block.
func (c *Catalog) FindByBlock(ctx context.Context, block string) ([]Drawing, error) {
	return c.query(ctx, `SELECT d.id, d.path, d.version, d.entities, d.indexed_at
		FROM drawings d JOIN blocks b ON b.drawing_id = d.id
		WHERE b.name = ? ORDER BY d.path`, block)
}

// FindByType returns the drawings with model space entities of a type
// such as "SPLINE".
func (c *Catalog) FindByType(ctx context.Context, typ string) ([]Drawing, error) {
	return c.query(ctx, `SELECT d.id, d.path, d.version, d.entities, d.indexed_at
		FROM drawings d JOIN entity_counts e ON e.drawing_id = d.id
		WHERE e.type = upper(?) ORDER BY d.path`, typ)
}

// Counts returns the model space entity counts of a drawing by type.
func (c *Catalog) Counts(ctx context.Context, id string) (map[string]int, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT type, count FROM entity_counts WHERE drawing_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		counts[typ] = n
	}
	return counts, rows.Err()
}

// Remove deletes a drawing and everything indexed for it.
func (c *Catalog) Remove(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM drawings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove drawing: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Catalog) query(ctx context.Context, query string, args ...any) ([]Drawing, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query drawings: %w", err)
	}
	defer rows.Close()

	var out []Drawing
	for rows.Next() {
		d, err := scanDrawing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDrawing(s scanner) (Drawing, error) {
	var d Drawing
	var version, indexed string
	if err := s.Scan(&d.ID, &d.Path, &version, &d.Entities, &indexed); err != nil {
		return Drawing{}, err
	}
	v, err := format.ParseVersion(version)
	if err != nil {
		return Drawing{}, fmt.Errorf("drawing %s: %w", d.ID, err)
	}
	d.Version = v
	if d.IndexedAt, err = time.Parse(time.RFC3339Nano, indexed); err != nil {
		return Drawing{}, fmt.Errorf("drawing %s: %w", d.ID, err)
	}
	return d, nil
}

// generateUUID generates a UUID v7, falling back to v4.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
