// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog keeps a SQLite index of extracted definitions: which
// source file each came from, where its .def file was written, and the
// line range it covered.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdef-extract/internal/blocks"
	"github.com/pdiddy/pdef-extract/pkg/types"
)

const defaultLimit = 100

// Catalog manages the definitions database.
type Catalog struct {
	db *sql.DB
}

// Entry is one catalogued definition.
type Entry struct {
	types.Definition
	RecordedAt time.Time `json:"recorded_at" yaml:"recorded_at"`
}

// Query filters Find. Name is a substring match; Source must match exactly.
type Query struct {
	Name   string
	Source string
	Limit  int
}

// Open opens or creates the catalog database at path, creating its parent
// directory and schema as needed.
func Open(path string) (*Catalog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	c := &Catalog{db: db}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return c, nil
}

// Close releases the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS definitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			source TEXT NOT NULL,
			output TEXT NOT NULL,
			start_line INTEGER NOT NULL,
			end_line INTEGER,
			lines INTEGER NOT NULL,
			closed INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_definitions_name ON definitions(name)`,
		`CREATE INDEX IF NOT EXISTS idx_definitions_source ON definitions(source)`,
	}
	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record replaces the catalogued definitions of res.Source with those in res.
func (c *Catalog) Record(ctx context.Context, res blocks.Result) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM definitions WHERE source = ?`, res.Source); err != nil {
		return fmt.Errorf("clearing %s: %w", res.Source, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO definitions
		(name, source, output, start_line, end_line, lines, closed, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, d := range res.Definitions {
		var endLine sql.NullInt64
		if d.Closed {
			endLine = sql.NullInt64{Int64: int64(d.EndLine), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, d.Name, d.Source, d.Output, d.StartLine, endLine, d.Lines, d.Closed, now); err != nil {
			return fmt.Errorf("inserting %s: %w", d.Name, err)
		}
	}

	return tx.Commit()
}

// RecordBatch records every result of a batch run.
func (c *Catalog) RecordBatch(ctx context.Context, result blocks.BatchResult) error {
	for _, res := range result.Results {
		if err := c.Record(ctx, res); err != nil {
			return err
		}
	}
	return nil
}

// Find returns catalogued definitions matching q, ordered by name then source.
func (c *Catalog) Find(ctx context.Context, q Query) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if q.Name != "" {
		where = append(where, `instr(name, ?) > 0`)
		args = append(args, q.Name)
	}
	if q.Source != "" {
		where = append(where, `source = ?`)
		args = append(args, q.Source)
	}

	query := `SELECT name, source, output, start_line, end_line, lines, closed, recorded_at FROM definitions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY name, source, start_line LIMIT ?`

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	args = append(args, limit)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			endLine  sql.NullInt64
			recorded string
		)
		if err := rows.Scan(&e.Name, &e.Source, &e.Output, &e.StartLine, &endLine, &e.Lines, &e.Closed, &recorded); err != nil {
			return nil, fmt.Errorf("scanning catalog row: %w", err)
		}
		e.EndLine = int(endLine.Int64)
		at, err := time.Parse(time.RFC3339Nano, recorded)
		if err != nil {
			return nil, fmt.Errorf("parsing recorded_at of %s: %w", e.Name, err)
		}
		e.RecordedAt = at
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
