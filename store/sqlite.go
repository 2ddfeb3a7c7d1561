package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"felt/engine"
)

// SQLiteStore persists table documents in a local sqlite file. The pool
// is pinned to one connection; sqlite serializes writers anyway and a
// single conn keeps the WAL handling simple.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS tables (
    id            TEXT PRIMARY KEY,
    version       INTEGER NOT NULL,
    doc           TEXT NOT NULL,
    updated_at_ms INTEGER NOT NULL
);`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, tbl *engine.Table) error {
	doc, err := json.Marshal(tbl)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO tables (id, version, doc, updated_at_ms) VALUES (?, 1, ?, ?)`,
		tbl.ID, string(doc), time.Now().UTC().UnixMilli())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*engine.Table, int64, error) {
	var doc string
	var version int64
	err := s.db.QueryRowContext(ctx,
		`SELECT version, doc FROM tables WHERE id = ?`, id).Scan(&version, &doc)
	if err == sql.ErrNoRows {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, err
	}
	var tbl engine.Table
	if err := json.Unmarshal([]byte(doc), &tbl); err != nil {
		return nil, 0, err
	}
	return &tbl, version, nil
}

func (s *SQLiteStore) Save(ctx context.Context, tbl *engine.Table, expectVersion int64) (int64, error) {
	doc, err := json.Marshal(tbl)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE tables SET version = version + 1, doc = ?, updated_at_ms = ?
WHERE id = ? AND version = ?`,
		string(doc), time.Now().UTC().UnixMilli(), tbl.ID, expectVersion)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		// Either the row is gone or someone committed first.
		var exists int
		if err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM tables WHERE id = ?`, tbl.ID).Scan(&exists); err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, ErrVersionMismatch
	}
	return expectVersion + 1, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM tables ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tables WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
