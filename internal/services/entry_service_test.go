package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"journal/internal/core"
	"journal/internal/ledger"
	"journal/internal/ledger/memory"
	"journal/internal/report"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var fixedNow = time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)

func seeded() *memory.Store {
	return memory.New(
		core.Transaction{Date: "2025-03-01 08:00:00", Description: "Sale A", Debit: dec("100"), Credit: decimal.Zero},
		core.Transaction{Date: "2025-03-02 08:00:00", Description: "Rent", Debit: decimal.Zero, Credit: dec("40")},
	)
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []core.Transaction
	err  error
}

func (f *fakePublisher) PublishEntryCreated(_ context.Context, tx core.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	return f.err
}

type failingStore struct{ loadErr, saveErr error }

func (f failingStore) Load(context.Context) ([]core.Transaction, error) { return nil, f.loadErr }
func (f failingStore) Save(context.Context, []core.Transaction) error   { return f.saveErr }

func TestSubmit_AppendsAndPersists(t *testing.T) {
	store := seeded()
	pub := &fakePublisher{}
	svc := NewEntryService(store, pub).WithClock(func() time.Time { return fixedNow })

	tx, err := svc.Submit(context.Background(), core.Draft{Description: "Sale B", Debit: dec("50")})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if tx.Date != "2025-03-15 10:30:00" || tx.Description != "Sale B" {
		t.Fatalf("unexpected transaction: %+v", tx)
	}

	recs, _ := store.Load(context.Background())
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if last := recs[2]; last.Description != "Sale B" || !last.Debit.Equal(dec("50")) || !last.Credit.IsZero() {
		t.Fatalf("unexpected last record: %+v", last)
	}
	if got := report.TotalBalance(recs); !got.Equal(dec("110")) {
		t.Fatalf("expected balance 110, got %s", got)
	}
	if store.Saves() != 1 {
		t.Fatalf("expected one full save, got %d", store.Saves())
	}
	if len(pub.sent) != 1 || pub.sent[0].Description != "Sale B" {
		t.Fatalf("expected one published event, got %+v", pub.sent)
	}
}

func TestSubmit_RejectsEmptyDraft(t *testing.T) {
	store := seeded()
	svc := NewEntryService(store, nil)

	_, err := svc.Submit(context.Background(), core.Draft{Description: "", Debit: decimal.Zero, Credit: decimal.Zero})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	recs, _ := store.Load(context.Background())
	if len(recs) != 2 || store.Saves() != 0 {
		t.Fatalf("journal must be unchanged: %d records, %d saves", len(recs), store.Saves())
	}
}

func TestSubmit_RejectsDuplicate(t *testing.T) {
	store := seeded()
	pub := &fakePublisher{}
	svc := NewEntryService(store, pub)

	_, err := svc.Submit(context.Background(), core.Draft{Description: "Sale A", Debit: dec("100.0")})
	if !errors.Is(err, core.ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	recs, _ := store.Load(context.Background())
	if len(recs) != 2 || store.Saves() != 0 || len(pub.sent) != 0 {
		t.Fatalf("journal must be unchanged: %d records, %d saves, %d events", len(recs), store.Saves(), len(pub.sent))
	}
}

func TestSubmit_PublishFailureDoesNotFail(t *testing.T) {
	store := seeded()
	svc := NewEntryService(store, &fakePublisher{err: errors.New("broker down")})

	if _, err := svc.Submit(context.Background(), core.Draft{Description: "Sale C", Credit: dec("3")}); err != nil {
		t.Fatalf("publish failure must not fail submit: %v", err)
	}
	recs, _ := store.Load(context.Background())
	if len(recs) != 3 {
		t.Fatalf("entry should be saved, got %d records", len(recs))
	}
}

func TestSubmit_StorageErrors(t *testing.T) {
	loadErr := &ledger.StorageError{Op: "load", Err: ledger.ErrCorrupt}
	svc := NewEntryService(failingStore{loadErr: loadErr}, nil)
	_, err := svc.Submit(context.Background(), core.Draft{Description: "x", Debit: dec("1")})
	if !errors.Is(err, ledger.ErrCorrupt) {
		t.Fatalf("expected corrupt error, got %v", err)
	}

	saveErr := errors.New("disk full")
	svc = NewEntryService(failingStore{saveErr: saveErr}, nil)
	_, err = svc.Submit(context.Background(), core.Draft{Description: "x", Debit: dec("1")})
	if !errors.Is(err, saveErr) {
		t.Fatalf("expected save error, got %v", err)
	}
}

func TestSubmit_ConcurrentSubmitsAreSerialized(t *testing.T) {
	store := memory.New()
	svc := NewEntryService(store, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = svc.Submit(context.Background(), core.Draft{Description: "entry", Debit: decimal.NewFromInt(int64(i + 1))})
		}(i)
	}
	wg.Wait()

	recs, _ := store.Load(context.Background())
	if len(recs) != 20 {
		t.Fatalf("expected 20 records, got %d", len(recs))
	}
}

func TestAppend_DoesNotMutateInput(t *testing.T) {
	recs := []core.Transaction{{Description: "a", Debit: dec("1")}}
	out, tx, err := Append(recs[:1:1], core.Draft{Description: "  b  ", Credit: dec("2")}, fixedNow)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || len(out) != 2 {
		t.Fatalf("unexpected lengths: in=%d out=%d", len(recs), len(out))
	}
	if tx.Description != "b" {
		t.Fatalf("description should be trimmed, got %q", tx.Description)
	}
}
