package store

import (
	"context"
	"errors"

	"felt/engine"
)

var (
	ErrNotFound        = errors.New("store: table not found")
	ErrAlreadyExists   = errors.New("store: table already exists")
	ErrVersionMismatch = errors.New("store: version mismatch")
)

// Store persists table documents keyed by table id with an optimistic
// version counter. Save commits only when the caller's expected version
// still matches; a lost race returns ErrVersionMismatch and the caller
// re-reads and retries.
type Store interface {
	// Create inserts a new document at version 1.
	Create(ctx context.Context, tbl *engine.Table) error

	// Load returns the document and its current version.
	Load(ctx context.Context, id string) (*engine.Table, int64, error)

	// Save writes the document if the stored version equals
	// expectVersion, and returns the new version.
	Save(ctx context.Context, tbl *engine.Table, expectVersion int64) (int64, error)

	// List returns every stored table id.
	List(ctx context.Context) ([]string, error)

	Delete(ctx context.Context, id string) error

	Close() error
}
