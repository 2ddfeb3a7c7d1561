package auth

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultSessionTTL = 30 * 24 * time.Hour
	tokenBytes        = 32
)

// Manager is the in-memory Service for single-binary deployments. It can
// be swapped for the sqlite backend without touching gateway contracts.
type Manager struct {
	mu sync.Mutex

	sessionTTL    time.Duration
	sessions      map[string]sessionRecord
	accountsByUID map[string]accountRecord
	uidByUsername map[string]string
}

type sessionRecord struct {
	UID       string
	ExpiresAt time.Time
}

type accountRecord struct {
	UID          string
	Username     string
	PasswordHash []byte
	LastLoginAt  time.Time
}

func NewManager(sessionTTL time.Duration) *Manager {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &Manager{
		sessionTTL:    sessionTTL,
		sessions:      make(map[string]sessionRecord),
		accountsByUID: make(map[string]accountRecord),
		uidByUsername: make(map[string]string),
	}
}

func (m *Manager) Register(username, password string) (string, string, error) {
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

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.uidByUsername[normalized]; exists {
		return "", "", ErrUsernameTaken
	}
	uid := uuid.NewString()
	now := time.Now()
	m.accountsByUID[uid] = accountRecord{
		UID:          uid,
		Username:     normalized,
		PasswordHash: hash,
		LastLoginAt:  now,
	}
	m.uidByUsername[normalized] = uid
	return uid, m.issueSessionLocked(uid, now), nil
}

func (m *Manager) Login(username, password string) (string, string, error) {
	normalized := normalizeUsername(username)
	if normalized == "" || password == "" {
		return "", "", ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	uid, exists := m.uidByUsername[normalized]
	if !exists {
		return "", "", ErrInvalidCredentials
	}
	account := m.accountsByUID[uid]
	if bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)) != nil {
		return "", "", ErrInvalidCredentials
	}
	now := time.Now()
	account.LastLoginAt = now
	m.accountsByUID[uid] = account
	return uid, m.issueSessionLocked(uid, now), nil
}

func (m *Manager) ResolveSession(token string) (string, string, bool) {
	if token == "" {
		return "", "", false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	rec, exists := m.sessions[token]
	if !exists {
		return "", "", false
	}
	if !now.Before(rec.ExpiresAt) {
		delete(m.sessions, token)
		return "", "", false
	}
	// Sliding expiry.
	rec.ExpiresAt = now.Add(m.sessionTTL)
	m.sessions[token] = rec
	return rec.UID, m.accountsByUID[rec.UID].Username, true
}

func (m *Manager) Logout(token string) {
	if token == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

func (m *Manager) Close() error { return nil }

func (m *Manager) issueSessionLocked(uid string, now time.Time) string {
	token := mustToken()
	m.sessions[token] = sessionRecord{UID: uid, ExpiresAt: now.Add(m.sessionTTL)}
	return token
}

func mustToken() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
