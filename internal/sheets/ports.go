package sheets

import (
	"context"

	"journal/internal/core"
)

// EntryMirror copies journal entries to an external spreadsheet.
type EntryMirror interface {
	// AppendEntry adds one row and returns a reference to it.
	AppendEntry(ctx context.Context, t core.Transaction) (rowRef string, err error)
}
