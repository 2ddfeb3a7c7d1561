package wallet

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"
)

const recentCacheSize = 256

// SQLiteService persists the ledger in a local sqlite file. Recent
// transaction pages are served from an LRU keyed by uid and invalidated
// on every write to that account.
type SQLiteService struct {
	db     *sql.DB
	recent *lru.Cache[string, []Transaction]
}

func NewSQLiteService(dbPath string) (*SQLiteService, error) {
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
		`PRAGMA foreign_keys = ON;`,
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
	if err := ensureWalletSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	cache, err := lru.New[string, []Transaction](recentCacheSize)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteService{db: db, recent: cache}, nil
}

func ensureWalletSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS wallet_accounts (
    uid     TEXT PRIMARY KEY,
    balance INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS wallet_transactions (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    uid           TEXT NOT NULL,
    ref           TEXT NOT NULL,
    amount        INTEGER NOT NULL,
    balance_after INTEGER NOT NULL,
    memo          TEXT NOT NULL DEFAULT '',
    created_at_ms INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_wallet_tx_uid_ref
    ON wallet_transactions (uid, ref) WHERE ref <> '';

CREATE INDEX IF NOT EXISTS idx_wallet_tx_uid_id
    ON wallet_transactions (uid, id DESC);
`)
	return err
}

func (s *SQLiteService) Balance(ctx context.Context, uid string) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx,
		`SELECT balance FROM wallet_accounts WHERE uid = ?`, uid).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return balance, err
}

func (s *SQLiteService) Credit(ctx context.Context, uid string, amount int64, ref, memo string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.apply(ctx, uid, amount, ref, memo, true)
}

func (s *SQLiteService) Debit(ctx context.Context, uid string, amount int64, ref, memo string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.apply(ctx, uid, -amount, ref, memo, false)
}

func (s *SQLiteService) apply(ctx context.Context, uid string, delta int64, ref, memo string, createAccount bool) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if ref != "" {
		var existing int64
		err := tx.QueryRowContext(ctx,
			`SELECT balance_after FROM wallet_transactions WHERE uid = ? AND ref = ?`,
			uid, ref).Scan(&existing)
		if err == nil {
			// Retry of an already-applied reference.
			return s.currentBalance(ctx, tx, uid)
		}
		if err != sql.ErrNoRows {
			return 0, err
		}
	}

	var balance int64
	err = tx.QueryRowContext(ctx,
		`SELECT balance FROM wallet_accounts WHERE uid = ?`, uid).Scan(&balance)
	switch {
	case err == sql.ErrNoRows:
		if !createAccount {
			return 0, ErrUnknownAccount
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO wallet_accounts (uid, balance) VALUES (?, 0)`, uid); err != nil {
			return 0, err
		}
		balance = 0
	case err != nil:
		return 0, err
	}

	next := balance + delta
	if next < 0 {
		return 0, ErrInsufficientFunds
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE wallet_accounts SET balance = ? WHERE uid = ?`, next, uid); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO wallet_transactions (uid, ref, amount, balance_after, memo, created_at_ms)
VALUES (?, ?, ?, ?, ?, ?)`,
		uid, ref, delta, next, memo, time.Now().UnixMilli()); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	s.recent.Remove(uid)
	return next, nil
}

func (s *SQLiteService) currentBalance(ctx context.Context, tx *sql.Tx, uid string) (int64, error) {
	var balance int64
	err := tx.QueryRowContext(ctx,
		`SELECT balance FROM wallet_accounts WHERE uid = ?`, uid).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return balance, err
}

func (s *SQLiteService) Recent(ctx context.Context, uid string, limit int) ([]Transaction, error) {
	limit = clampRecentLimit(limit)
	if cached, ok := s.recent.Get(uid); ok && len(cached) >= limit {
		return cached[:limit], nil
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT uid, amount, balance_after, ref, memo, created_at_ms
FROM wallet_transactions
WHERE uid = ?
ORDER BY id DESC
LIMIT ?`, uid, maxRecentLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var tx Transaction
		var createdMs int64
		if err := rows.Scan(&tx.UID, &tx.Amount, &tx.BalanceAfter, &tx.Ref, &tx.Memo, &createdMs); err != nil {
			return nil, err
		}
		tx.CreatedAt = time.UnixMilli(createdMs).UTC()
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.recent.Add(uid, out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *SQLiteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
