package auth

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ModeMemory = "memory"
	ModeSQLite = "sqlite"
)

const defaultSQLitePath = "felt_auth.db"

func modeFromEnv() string {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("AUTH_MODE")))
	switch raw {
	case "", ModeSQLite, "local":
		return ModeSQLite
	case ModeMemory, "mem":
		return ModeMemory
	default:
		return raw
	}
}

func sessionTTLFromEnv() time.Duration {
	raw := strings.TrimSpace(os.Getenv("AUTH_SESSION_TTL_HOURS"))
	if raw == "" {
		return defaultSessionTTL
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return defaultSessionTTL
	}
	return time.Duration(hours) * time.Hour
}

// NewServiceFromEnv builds the auth backend selected by AUTH_MODE.
func NewServiceFromEnv() (Service, string, error) {
	mode := modeFromEnv()
	switch mode {
	case ModeMemory:
		return NewManager(sessionTTLFromEnv()), mode, nil
	case ModeSQLite:
		path := strings.TrimSpace(os.Getenv("AUTH_SQLITE_PATH"))
		if path == "" {
			path = defaultSQLitePath
		}
		m, err := NewSQLiteManager(path, sessionTTLFromEnv())
		return m, mode, err
	default:
		return nil, mode, fmt.Errorf("invalid AUTH_MODE %q (supported: %s, %s)", mode, ModeMemory, ModeSQLite)
	}
}
