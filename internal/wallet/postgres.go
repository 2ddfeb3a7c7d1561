package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// PostgresService persists the ledger in postgres. Row locking on the
// account row serializes concurrent debits against the same uid.
type PostgresService struct {
	db *sql.DB
}

func NewPostgresService(dsn string) (*PostgresService, error) {
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
CREATE TABLE IF NOT EXISTS wallet_accounts (
    uid     TEXT PRIMARY KEY,
    balance BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS wallet_transactions (
    id            BIGSERIAL PRIMARY KEY,
    uid           TEXT NOT NULL,
    ref           TEXT NOT NULL,
    amount        BIGINT NOT NULL,
    balance_after BIGINT NOT NULL,
    memo          TEXT NOT NULL DEFAULT '',
    created_at_ms BIGINT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_wallet_tx_uid_ref
    ON wallet_transactions (uid, ref) WHERE ref <> '';

CREATE INDEX IF NOT EXISTS idx_wallet_tx_uid_id
    ON wallet_transactions (uid, id DESC);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresService{db: db}, nil
}

func (s *PostgresService) Balance(ctx context.Context, uid string) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx,
		`SELECT balance FROM wallet_accounts WHERE uid = $1`, uid).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return balance, err
}

func (s *PostgresService) Credit(ctx context.Context, uid string, amount int64, ref, memo string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.apply(ctx, uid, amount, ref, memo, true)
}

func (s *PostgresService) Debit(ctx context.Context, uid string, amount int64, ref, memo string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.apply(ctx, uid, -amount, ref, memo, false)
}

func (s *PostgresService) apply(ctx context.Context, uid string, delta int64, ref, memo string, createAccount bool) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if ref != "" {
		var existing int64
		err := tx.QueryRowContext(ctx,
			`SELECT balance_after FROM wallet_transactions WHERE uid = $1 AND ref = $2`,
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
		`SELECT balance FROM wallet_accounts WHERE uid = $1 FOR UPDATE`, uid).Scan(&balance)
	switch {
	case err == sql.ErrNoRows:
		if !createAccount {
			return 0, ErrUnknownAccount
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO wallet_accounts (uid, balance) VALUES ($1, 0)`, uid); err != nil {
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
		`UPDATE wallet_accounts SET balance = $1 WHERE uid = $2`, next, uid); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO wallet_transactions (uid, ref, amount, balance_after, memo, created_at_ms)
VALUES ($1, $2, $3, $4, $5, $6)`,
		uid, ref, delta, next, memo, time.Now().UnixMilli()); err != nil {
		if isUniqueViolation(err) {
			// A concurrent retry of the same ref won the insert.
			return s.currentBalance(ctx, tx, uid)
		}
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return next, nil
}

func (s *PostgresService) currentBalance(ctx context.Context, tx *sql.Tx, uid string) (int64, error) {
	var balance int64
	err := tx.QueryRowContext(ctx,
		`SELECT balance FROM wallet_accounts WHERE uid = $1`, uid).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return balance, err
}

func (s *PostgresService) Recent(ctx context.Context, uid string, limit int) ([]Transaction, error) {
	limit = clampRecentLimit(limit)
	rows, err := s.db.QueryContext(ctx, `
SELECT uid, amount, balance_after, ref, memo, created_at_ms
FROM wallet_transactions
WHERE uid = $1
ORDER BY id DESC
LIMIT $2`, uid, limit)
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
	return out, rows.Err()
}

func (s *PostgresService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
