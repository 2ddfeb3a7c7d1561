package auth

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_.-]{2,31}$`)

// Service is the account/session contract consumed by the gateway and
// the HTTP handlers. UIDs are opaque strings that double as the seat
// owner identity inside table documents.
type Service interface {
	Register(username, password string) (uid, sessionToken string, err error)
	Login(username, password string) (uid, sessionToken string, err error)
	ResolveSession(token string) (uid, username string, ok bool)
	Logout(token string)
	Close() error
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func validateUsername(username string) error {
	if !usernamePattern.MatchString(strings.TrimSpace(username)) {
		return ErrInvalidUsername
	}
	return nil
}

func validatePassword(password string) error {
	// bcrypt truncates past 72 bytes.
	if len(password) < 6 || len(password) > 72 {
		return ErrInvalidPassword
	}
	return nil
}
