package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"journal/internal/core"
	"journal/internal/ledger"
	applog "journal/internal/log"
)

// EntryPublisher announces accepted entries to other systems.
type EntryPublisher interface {
	PublishEntryCreated(ctx context.Context, tx core.Transaction) error
}

// EntryService validates and appends journal entries.
type EntryService struct {
	store     ledger.Store
	publisher EntryPublisher
	now       func() time.Time
	logger    *applog.Logger

	// serializes load-append-save inside this process
	mu sync.Mutex
}

func NewEntryService(store ledger.Store, publisher EntryPublisher) *EntryService {
	return &EntryService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
		logger:    applog.Default(applog.ComponentJournal),
	}
}

// WithClock replaces the time source, for tests.
func (s *EntryService) WithClock(now func() time.Time) *EntryService {
	s.now = now
	return s
}

// Records returns the current journal.
func (s *EntryService) Records(ctx context.Context) ([]core.Transaction, error) {
	records, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load journal: %w", err)
	}
	return records, nil
}

// Submit appends the draft to the journal and saves the whole collection.
// Validation and duplicate failures leave the journal untouched.
func (s *EntryService) Submit(ctx context.Context, d core.Draft) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.store.Load(ctx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load journal: %w", err)
	}

	updated, tx, err := Append(records, d, s.now())
	if err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.Save(ctx, updated); err != nil {
		return core.Transaction{}, fmt.Errorf("save journal: %w", err)
	}

	if err := s.publish(ctx, tx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish entry event",
			applog.FieldOperation, applog.OpPublish,
			applog.FieldErrorType, applog.ErrorTypeNetwork,
			applog.FieldEntryDesc, tx.Description,
			applog.FieldError, err)
		// the entry is saved; the event is best effort
	}

	return tx, nil
}

// Append checks the draft against records and returns the extended collection.
// records itself is never modified.
func Append(records []core.Transaction, d core.Draft, now time.Time) ([]core.Transaction, core.Transaction, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return nil, core.Transaction{}, err
	}
	for _, r := range records {
		if r.SameEntry(d) {
			return nil, core.Transaction{}, core.ErrDuplicate
		}
	}

	tx := d.Transaction(now)
	updated := make([]core.Transaction, 0, len(records)+1)
	updated = append(updated, records...)
	updated = append(updated, tx)
	return updated, tx, nil
}

func (s *EntryService) publish(ctx context.Context, tx core.Transaction) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No entry publisher configured, skipping event")
		return nil
	}
	return s.publisher.PublishEntryCreated(ctx, tx)
}
