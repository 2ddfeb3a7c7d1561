package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"felt/engine"
)

// PostgresStore persists table documents in postgres, one row per table
// with the document as jsonb.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("empty postgres dsn")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS tables (
    id            TEXT PRIMARY KEY,
    version       BIGINT NOT NULL,
    doc           JSONB NOT NULL,
    updated_at_ms BIGINT NOT NULL
);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) Create(ctx context.Context, tbl *engine.Table) error {
	doc, err := json.Marshal(tbl)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO tables (id, version, doc, updated_at_ms) VALUES ($1, 1, $2, $3)`,
		tbl.ID, string(doc), time.Now().UTC().UnixMilli())
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, id string) (*engine.Table, int64, error) {
	var doc string
	var version int64
	err := s.db.QueryRowContext(ctx,
		`SELECT version, doc FROM tables WHERE id = $1`, id).Scan(&version, &doc)
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

func (s *PostgresStore) Save(ctx context.Context, tbl *engine.Table, expectVersion int64) (int64, error) {
	doc, err := json.Marshal(tbl)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE tables SET version = version + 1, doc = $1, updated_at_ms = $2
WHERE id = $3 AND version = $4`,
		string(doc), time.Now().UTC().UnixMilli(), tbl.ID, expectVersion)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		var exists int
		if err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM tables WHERE id = $1`, tbl.ID).Scan(&exists); err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, ErrVersionMismatch
	}
	return expectVersion + 1, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
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

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tables WHERE id = $1`, id)
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
