package worker

import (
	"context"
	"fmt"

	"journal/internal/amqp"
	applog "journal/internal/log"
	"journal/internal/sheets"
)

// MirrorWorker copies published journal entries into a spreadsheet.
type MirrorWorker struct {
	mirror sheets.EntryMirror
	logger *applog.Logger
}

func NewMirrorWorker(mirror sheets.EntryMirror) *MirrorWorker {
	return &MirrorWorker{mirror: mirror, logger: applog.Default(applog.ComponentWorker)}
}

// HandleEntryCreated processes a single entry message from AMQP. A returned
// error makes the consumer requeue the message.
func (w *MirrorWorker) HandleEntryCreated(ctx context.Context, msg *amqp.EntryCreatedMessage) error {
	w.logger.InfoContext(ctx, "Processing entry message",
		applog.FieldOperation, applog.OpMirror,
		applog.FieldEntryDate, msg.Date,
		applog.FieldEntryDesc, msg.Description)

	t, err := msg.ToTransaction()
	if err != nil {
		return fmt.Errorf("decode entry: %w", err)
	}

	ref, err := w.mirror.AppendEntry(ctx, t)
	if err != nil {
		return fmt.Errorf("mirror entry: %w", err)
	}

	w.logger.InfoContext(ctx, "Mirrored entry",
		applog.FieldOperation, applog.OpMirror,
		applog.FieldEntryDate, t.Date,
		applog.FieldEntryDesc, t.Description,
		"row_ref", ref)

	return nil
}
