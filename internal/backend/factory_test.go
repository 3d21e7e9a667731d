package backend

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"journal/internal/config"
	applog "journal/internal/log"
)

func testFactory() Factory {
	return NewFactory(applog.New(applog.Config{Output: io.Discard}))
}

func TestCreateBackend(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "memory", cfg: Config{Type: MemoryBackend}},
		{name: "json", cfg: Config{Type: JSONBackend, DataFile: filepath.Join(dir, "journal.json")}},
		{name: "sqlite", cfg: Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "journal.db")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := testFactory().CreateBackend(context.Background(), tt.cfg)
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			defer func() {
				if err := res.Cleanup(); err != nil {
					t.Errorf("Cleanup: %v", err)
				}
			}()

			if res.Publisher != nil {
				t.Error("no publisher expected without AMQP URL")
			}
			records, err := res.Store.Load(context.Background())
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(records) != 0 {
				t.Errorf("fresh store has %d records", len(records))
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dir, "journal.json")); err != nil {
		t.Errorf("json backend should create its file: %v", err)
	}
}

func TestCreateBackendInvalid(t *testing.T) {
	tests := []Config{
		{Type: "sheets"},
		{Type: JSONBackend},
		{Type: SQLiteBackend},
	}
	for _, cfg := range tests {
		if _, err := testFactory().CreateBackend(context.Background(), cfg); err == nil {
			t.Errorf("expected error for %+v", cfg)
		}
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}

	app := &config.Config{DataBackend: "json", DataFile: "j.json", AMQPURL: "amqp://x", AMQPExchange: "journal", AMQPQueue: "q"}
	got, err := FromAppConfig(app)
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != JSONBackend || got.DataFile != "j.json" || got.AMQPQueue != "q" {
		t.Errorf("unexpected config %+v", got)
	}

	app.DataBackend = "postgres"
	if _, err := FromAppConfig(app); err == nil {
		t.Error("expected error for unknown backend")
	}
}
