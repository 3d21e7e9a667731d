package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"journal/internal/core"
)

func TestMirrorAppendEntry(t *testing.T) {
	m := New()
	ctx := context.Background()

	ref, err := m.AppendEntry(ctx, core.Transaction{Description: "a", Debit: decimal.NewFromInt(1)})
	if err != nil || ref != "mem:1" {
		t.Fatalf("first append = %q, %v", ref, err)
	}
	ref, err = m.AppendEntry(ctx, core.Transaction{Description: "b", Credit: decimal.NewFromInt(2)})
	if err != nil || ref != "mem:2" {
		t.Fatalf("second append = %q, %v", ref, err)
	}

	got := m.Entries()
	if len(got) != 2 || got[0].Description != "a" || got[1].Description != "b" {
		t.Errorf("unexpected entries %+v", got)
	}

	got[0].Description = "changed"
	if m.Entries()[0].Description != "a" {
		t.Error("Entries must return a copy")
	}
}
