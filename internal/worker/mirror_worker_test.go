package worker

import (
	"context"
	"errors"
	"testing"

	"journal/internal/amqp"
	"journal/internal/core"
	"journal/internal/sheets/memory"
)

type failingMirror struct{}

func (failingMirror) AppendEntry(context.Context, core.Transaction) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestHandleEntryCreated(t *testing.T) {
	mirror := memory.New()
	w := NewMirrorWorker(mirror)

	msg := &amqp.EntryCreatedMessage{
		Date:        "2024-02-10 12:00:00",
		Description: "Achat fournitures",
		Debit:       "75.20",
		Credit:      "0",
	}

	if err := w.HandleEntryCreated(context.Background(), msg); err != nil {
		t.Fatalf("HandleEntryCreated: %v", err)
	}

	entries := mirror.Entries()
	if len(entries) != 1 {
		t.Fatalf("mirrored %d entries, want 1", len(entries))
	}
	if entries[0].Description != "Achat fournitures" || entries[0].Debit.String() != "75.2" {
		t.Errorf("unexpected entry %+v", entries[0])
	}
}

func TestHandleEntryCreatedErrors(t *testing.T) {
	tests := []struct {
		name   string
		worker *MirrorWorker
		msg    *amqp.EntryCreatedMessage
	}{
		{
			name:   "bad amount",
			worker: NewMirrorWorker(memory.New()),
			msg:    &amqp.EntryCreatedMessage{Description: "x", Credit: "1,5,0"},
		},
		{
			name:   "mirror failure",
			worker: NewMirrorWorker(failingMirror{}),
			msg:    &amqp.EntryCreatedMessage{Description: "x", Credit: "10"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.worker.HandleEntryCreated(context.Background(), tt.msg); err == nil {
				t.Error("expected error")
			}
		})
	}
}
