package auth

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SQLiteManager persists accounts and sessions in a local sqlite file.
type SQLiteManager struct {
	db         *sql.DB
	sessionTTL time.Duration
}

func NewSQLiteManager(dbPath string, sessionTTL time.Duration) (*SQLiteManager, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
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
CREATE TABLE IF NOT EXISTS accounts (
    uid              TEXT PRIMARY KEY,
    username         TEXT NOT NULL UNIQUE,
    password_hash    BLOB NOT NULL,
    created_at_ms    INTEGER NOT NULL,
    last_login_at_ms INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS sessions (
    token         TEXT PRIMARY KEY,
    uid           TEXT NOT NULL REFERENCES accounts(uid) ON DELETE CASCADE,
    expires_at_ms INTEGER NOT NULL
);`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteManager{db: db, sessionTTL: sessionTTL}, nil
}

func (m *SQLiteManager) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}

func (m *SQLiteManager) Register(username, password string) (string, string, error) {
	if err := validateUsername(username); err != nil {
		return "", "", err
	}
	if err := validatePassword(password); err != nil {
		return "", "", err
	}
	normalized := normalizeUsername(username)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	uid := uuid.NewString()
	nowMs := time.Now().UTC().UnixMilli()
	_, err = m.db.ExecContext(ctx, `
INSERT INTO accounts (uid, username, password_hash, created_at_ms, last_login_at_ms)
VALUES (?, ?, ?, ?, ?)`, uid, normalized, hash, nowMs, nowMs)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return "", "", ErrUsernameTaken
		}
		return "", "", err
	}
	token, err := m.issueSession(ctx, uid)
	if err != nil {
		return "", "", err
	}
	return uid, token, nil
}

func (m *SQLiteManager) Login(username, password string) (string, string, error) {
	normalized := normalizeUsername(username)
	if normalized == "" || password == "" {
		return "", "", ErrInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var uid string
	var hash []byte
	err := m.db.QueryRowContext(ctx,
		`SELECT uid, password_hash FROM accounts WHERE username = ?`, normalized).Scan(&uid, &hash)
	if err == sql.ErrNoRows {
		return "", "", ErrInvalidCredentials
	}
	if err != nil {
		return "", "", err
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return "", "", ErrInvalidCredentials
	}

	if _, err := m.db.ExecContext(ctx,
		`UPDATE accounts SET last_login_at_ms = ? WHERE uid = ?`,
		time.Now().UTC().UnixMilli(), uid); err != nil {
		return "", "", err
	}
	token, err := m.issueSession(ctx, uid)
	if err != nil {
		return "", "", err
	}
	return uid, token, nil
}

func (m *SQLiteManager) ResolveSession(token string) (string, string, bool) {
	if token == "" {
		return "", "", false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var uid, username string
	var expiresMs int64
	err := m.db.QueryRowContext(ctx, `
SELECT s.uid, a.username, s.expires_at_ms
FROM sessions s JOIN accounts a ON a.uid = s.uid
WHERE s.token = ?`, token).Scan(&uid, &username, &expiresMs)
	if err != nil {
		return "", "", false
	}
	now := time.Now().UTC()
	if now.UnixMilli() >= expiresMs {
		_, _ = m.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
		return "", "", false
	}
	_, _ = m.db.ExecContext(ctx, `UPDATE sessions SET expires_at_ms = ? WHERE token = ?`,
		now.Add(m.sessionTTL).UnixMilli(), token)
	return uid, username, true
}

func (m *SQLiteManager) Logout(token string) {
	if token == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = m.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
}

func (m *SQLiteManager) issueSession(ctx context.Context, uid string) (string, error) {
	token := mustToken()
	_, err := m.db.ExecContext(ctx, `
INSERT INTO sessions (token, uid, expires_at_ms) VALUES (?, ?, ?)`,
		token, uid, time.Now().UTC().Add(m.sessionTTL).UnixMilli())
	if err != nil {
		return "", err
	}
	return token, nil
}
