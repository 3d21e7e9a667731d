// Package jsonfile stores the journal as a single JSON array on disk.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"journal/internal/core"
	"journal/internal/ledger"
	applog "journal/internal/log"
)

type Store struct {
	path string
}

var _ ledger.Store = (*Store)(nil)

// New returns a store for path, creating the file as an empty array when it
// does not exist yet.
func New(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) ensureFile() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return &ledger.StorageError{Op: "load", Path: s.path, Err: err}
	}
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &ledger.StorageError{Op: "load", Path: s.path, Err: fmt.Errorf("create directory: %w", err)}
		}
	}
	if err := os.WriteFile(s.path, []byte("[]"), 0o644); err != nil {
		return &ledger.StorageError{Op: "load", Path: s.path, Err: err}
	}
	applog.Default(applog.ComponentStorage).Info("Created empty journal file", "path", s.path)
	return nil
}

// wireRecord accepts historical objects with missing or null keys.
type wireRecord struct {
	Date        *string          `json:"Date"`
	Description *string          `json:"Description"`
	Debit       *decimal.Decimal `json:"Débit"`
	Credit      *decimal.Decimal `json:"Crédit"`
}

func (s *Store) Load(_ context.Context) ([]core.Transaction, error) {
	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &ledger.StorageError{Op: "load", Path: s.path, Err: err}
	}
	return decode(raw, s.path)
}

func decode(raw []byte, path string) ([]core.Transaction, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []core.Transaction{}, nil
	}
	var wire []wireRecord
	if err := json.Unmarshal(nanToNull(raw), &wire); err != nil {
		return nil, &ledger.StorageError{Op: "load", Path: path, Err: fmt.Errorf("%w: %v", ledger.ErrCorrupt, err)}
	}
	out := make([]core.Transaction, 0, len(wire))
	for i, w := range wire {
		tx := core.Transaction{Debit: decimal.Zero, Credit: decimal.Zero}
		if w.Date != nil {
			tx.Date = *w.Date
		}
		if w.Description != nil {
			tx.Description = *w.Description
		}
		if w.Debit != nil {
			tx.Debit = *w.Debit
		}
		if w.Credit != nil {
			tx.Credit = *w.Credit
		}
		if err := errors.Join(core.CheckAmount(tx.Debit), core.CheckAmount(tx.Credit)); err != nil {
			return nil, &ledger.StorageError{Op: "load", Path: path, Err: fmt.Errorf("%w: record %d: %v", ledger.ErrCorrupt, i, err)}
		}
		out = append(out, tx)
	}
	return out, nil
}

var nan = []byte("NaN")

// nanToNull rewrites bare NaN tokens outside strings as null. Journals written
// through pandas carry NaN for keys missing from some rows; as null they are
// back-filled like absent keys.
func nanToNull(raw []byte) []byte {
	if !bytes.Contains(raw, nan) {
		return raw
	}
	out := make([]byte, 0, len(raw))
	inString, escaped := false, false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			out = append(out, c)
			continue
		}
		if c == '"' {
			inString = true
		} else if bytes.HasPrefix(raw[i:], nan) {
			out = append(out, "null"...)
			i += len(nan) - 1
			continue
		}
		out = append(out, c)
	}
	return out
}

// Save rewrites the whole file through a temporary file and a rename.
func (s *Store) Save(_ context.Context, records []core.Transaction) error {
	body, err := encode(records)
	if err != nil {
		return &ledger.StorageError{Op: "save", Path: s.path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &ledger.StorageError{Op: "save", Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return &ledger.StorageError{Op: "save", Path: s.path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &ledger.StorageError{Op: "save", Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &ledger.StorageError{Op: "save", Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return &ledger.StorageError{Op: "save", Path: s.path, Err: err}
	}
	return nil
}

// encode writes amounts as JSON numbers and an absent date as null.
func encode(records []core.Transaction) ([]byte, error) {
	type outRecord struct {
		Date        *string     `json:"Date"`
		Description string      `json:"Description"`
		Debit       json.Number `json:"Débit"`
		Credit      json.Number `json:"Crédit"`
	}
	out := make([]outRecord, 0, len(records))
	for _, r := range records {
		o := outRecord{
			Description: r.Description,
			Debit:       json.Number(r.Debit.String()),
			Credit:      json.Number(r.Credit.String()),
		}
		if r.Date != "" {
			d := r.Date
			o.Date = &d
		}
		out = append(out, o)
	}
	return json.Marshal(out)
}
