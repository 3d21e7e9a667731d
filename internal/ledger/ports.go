// Package ledger defines the persistence port for the journal.
//
// A Store always works on the whole collection: Load returns every record in
// insertion order and Save overwrites everything. Concurrent writers from other
// processes are not coordinated; the last Save wins.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"journal/internal/core"
)

type Store interface {
	Load(ctx context.Context) ([]core.Transaction, error)
	Save(ctx context.Context, records []core.Transaction) error
}

// ErrCorrupt marks backing content that cannot be decoded.
var ErrCorrupt = errors.New("ledger content is corrupt")

// StorageError reports a failed load or save.
type StorageError struct {
	Op   string // "load" or "save"
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("ledger %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
