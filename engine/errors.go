package engine

import (
	"errors"
	"fmt"
)

// ErrorKind is the error taxonomy surfaced to intent callers. Every failed
// transition leaves the table document unchanged.
type ErrorKind string

const (
	KindConflict          ErrorKind = "Conflict"
	KindIllegalAction     ErrorKind = "IllegalAction"
	KindInsufficientChips ErrorKind = "InsufficientChips"
	KindInvalidInput      ErrorKind = "InvalidInput"
	KindNotAuthorized     ErrorKind = "NotAuthorized"
	KindDeckUnderflow     ErrorKind = "DeckUnderflow"
	KindTournamentClosed  ErrorKind = "TournamentClosed"
	KindPriceChanged      ErrorKind = "PriceChanged"
)

type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func Errf(kind ErrorKind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the taxonomy kind from any error chain. Errors raised
// outside the taxonomy report an empty kind.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

var (
	ErrConflict      = &Error{Kind: KindConflict, Message: "optimistic concurrency retries exhausted"}
	ErrDeckUnderflow = &Error{Kind: KindDeckUnderflow, Message: "deck exhausted after reshuffle"}
)
