package memory

import (
	"context"
	"fmt"
	"sync"

	"journal/internal/core"
	ports "journal/internal/sheets"
)

// Mirror keeps mirrored rows in memory. Used when no spreadsheet is
// configured and in tests.
type Mirror struct {
	mu    sync.Mutex
	items []core.Transaction
}

var _ ports.EntryMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

// AppendEntry stores the transaction and returns a synthetic row reference.
func (m *Mirror) AppendEntry(_ context.Context, t core.Transaction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, t)
	return fmt.Sprintf("mem:%d", len(m.items)), nil
}

// Entries returns a copy of everything appended so far.
func (m *Mirror) Entries() []core.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Transaction(nil), m.items...)
}
