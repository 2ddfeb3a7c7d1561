package store

import (
	"fmt"
	"os"
	"strings"
)

const (
	ModeMemory   = "memory"
	ModeSQLite   = "sqlite"
	ModePostgres = "postgres"
)

const defaultSQLitePath = "felt_tables.db"

func modeFromEnv() string {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_MODE")))
	switch raw {
	case "", ModeSQLite:
		return ModeSQLite
	case ModeMemory, "mem":
		return ModeMemory
	case ModePostgres, "postgresql", "pg":
		return ModePostgres
	default:
		return raw
	}
}

// NewFromEnv builds the table store selected by STORE_MODE. The sqlite
// path comes from STORE_SQLITE_PATH and the postgres DSN from
// STORE_POSTGRES_DSN (falling back to DATABASE_URL).
func NewFromEnv() (Store, string, error) {
	mode := modeFromEnv()
	switch mode {
	case ModeMemory:
		return NewMemoryStore(), mode, nil
	case ModeSQLite:
		path := strings.TrimSpace(os.Getenv("STORE_SQLITE_PATH"))
		if path == "" {
			path = defaultSQLitePath
		}
		s, err := NewSQLiteStore(path)
		return s, mode, err
	case ModePostgres:
		dsn := strings.TrimSpace(os.Getenv("STORE_POSTGRES_DSN"))
		if dsn == "" {
			dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
		}
		s, err := NewPostgresStore(dsn)
		return s, mode, err
	default:
		return nil, mode, fmt.Errorf("invalid STORE_MODE %q (supported: %s, %s, %s)",
			mode, ModeMemory, ModeSQLite, ModePostgres)
	}
}
