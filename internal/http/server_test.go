package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"journal/internal/core"
	"journal/internal/ledger"
	"journal/internal/ledger/memory"
	applog "journal/internal/log"
	"journal/internal/services"
	"journal/internal/session"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type failingStore struct{}

func (failingStore) Load(context.Context) ([]core.Transaction, error) {
	return nil, &ledger.StorageError{Op: "load", Path: "journal.json", Err: errors.New("disk gone")}
}

func (failingStore) Save(context.Context, []core.Transaction) error {
	return errors.New("disk gone")
}

// saveFailingStore loads normally and fails every save.
type saveFailingStore struct {
	*memory.Store
}

func (saveFailingStore) Save(context.Context, []core.Transaction) error {
	return errors.New("read-only filesystem")
}

func seedRecords() []core.Transaction {
	return []core.Transaction{
		{Date: "2024-03-01 09:00:00", Description: "Sale A", Debit: decimal.NewFromInt(100), Credit: decimal.Zero},
		{Date: "2024-02-20 09:00:00", Description: "Rent", Debit: decimal.Zero, Credit: decimal.NewFromInt(40)},
	}
}

func newTestServer(t *testing.T, store ledger.Store, rateLimit int) *Server {
	t.Helper()
	svc := services.NewEntryService(store, nil).WithClock(func() time.Time { return fixedNow })
	s, err := NewServer(":0", svc, session.NewStore(10, time.Hour), Options{
		Currency:           "CFA",
		RateLimitPerMinute: rateLimit,
		Logger:             applog.New(applog.Config{Output: io.Discard}),
		Now:                func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

// client replays the session cookie between requests.
type client struct {
	t       *testing.T
	h       http.Handler
	cookies []*http.Cookie
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	if got := rec.Result().Cookies(); len(got) > 0 {
		c.cookies = got
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) post(form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func entryForm(desc, debit, credit string) url.Values {
	return url.Values{"description": {desc}, "debit": {debit}, "credit": {credit}}
}

func TestIndexRendersJournal(t *testing.T) {
	s := newTestServer(t, memory.New(seedRecords()...), 60)
	c := &client{t: t, h: s.Handler}

	rec := c.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"Sale A", "Rent",
		"+60.00 CFA",
		"Statistiques de mars 2024",
		`href="/export.csv"`,
		`<rect class="bar-debit"`,
		`value="0.00"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}

	if len(c.cookies) != 1 || c.cookies[0].Name != SessionCookieName || !c.cookies[0].HttpOnly {
		t.Errorf("unexpected cookies %+v", c.cookies)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers not applied")
	}
}

func TestSubmitSuccess(t *testing.T) {
	store := memory.New(seedRecords()...)
	s := newTestServer(t, store, 60)
	c := &client{t: t, h: s.Handler}
	c.get("/")

	rec := c.post(entryForm("Sale B", "50", "0"))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("status = %d location = %q", rec.Code, rec.Header().Get("Location"))
	}

	records, _ := store.Load(context.Background())
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	last := records[2]
	if last.Description != "Sale B" || !last.Debit.Equal(decimal.NewFromInt(50)) || last.Date != "2024-03-15 10:00:00" {
		t.Errorf("unexpected record %+v", last)
	}

	page := c.get("/").Body.String()
	if !strings.Contains(page, "Nouvelle entrée ajoutée avec succès !") {
		t.Error("success flash not shown")
	}
	if !strings.Contains(page, "+110.00 CFA") {
		t.Error("balance not updated")
	}
	if strings.Contains(page, `value="Sale B"`) {
		t.Error("form should be reset after success")
	}

	// flash is shown once
	if strings.Contains(c.get("/").Body.String(), "ajoutée avec succès") {
		t.Error("flash shown twice")
	}
}

func TestSubmitRejected(t *testing.T) {
	tests := []struct {
		name     string
		form     url.Values
		wantMsg  string
		wantKept string
	}{
		{
			name:    "empty description and amounts",
			form:    entryForm("", "0", "0"),
			wantMsg: "Veuillez remplir la description",
		},
		{
			name:     "amounts zero",
			form:     entryForm("Café", "0.00", ""),
			wantMsg:  "Veuillez remplir la description",
			wantKept: `value="Café"`,
		},
		{
			name:     "duplicate",
			form:     entryForm("Sale A", "100.0", "0"),
			wantMsg:  "Cette entrée existe déjà dans le livre journal.",
			wantKept: `value="Sale A"`,
		},
		{
			name:     "not a number",
			form:     entryForm("Stylo", "abc", "0"),
			wantMsg:  "Les montants doivent être des nombres positifs.",
			wantKept: `value="abc"`,
		},
		{
			name:    "negative",
			form:    entryForm("Stylo", "-5", "0"),
			wantMsg: "Les montants doivent être des nombres positifs.",
		},
		{
			name:     "exponent notation",
			form:     entryForm("Stylo", "1e50000000", "0"),
			wantMsg:  "Les montants doivent être des nombres positifs.",
			wantKept: `value="1e50000000"`,
		},
		{
			name:    "amount too large",
			form:    entryForm("Stylo", "1234567890123456", "0"),
			wantMsg: "Les montants sont trop grands.",
		},
		{
			name:    "description too long",
			form:    entryForm(strings.Repeat("é", 501), "1", "0"),
			wantMsg: "La description ne doit pas dépasser 500 caractères.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New(seedRecords()...)
			s := newTestServer(t, store, 60)
			c := &client{t: t, h: s.Handler}

			rec := c.post(tt.form)
			if rec.Code != http.StatusSeeOther {
				t.Fatalf("status = %d", rec.Code)
			}
			if store.Saves() != 0 {
				t.Error("journal must not be saved")
			}
			records, _ := store.Load(context.Background())
			if len(records) != 2 {
				t.Errorf("records = %d, want 2", len(records))
			}

			page := c.get("/").Body.String()
			if !strings.Contains(page, tt.wantMsg) {
				t.Errorf("page missing flash %q", tt.wantMsg)
			}
			if tt.wantKept != "" && !strings.Contains(page, tt.wantKept) {
				t.Errorf("typed value %q not kept", tt.wantKept)
			}
		})
	}
}

func TestPendingInputIsPerSession(t *testing.T) {
	s := newTestServer(t, memory.New(), 60)
	alice := &client{t: t, h: s.Handler}
	bob := &client{t: t, h: s.Handler}

	alice.post(entryForm("Brouillon", "", ""))

	if !strings.Contains(alice.get("/").Body.String(), `value="Brouillon"`) {
		t.Error("typed description lost for its own session")
	}
	if strings.Contains(bob.get("/").Body.String(), "Brouillon") {
		t.Error("pending input leaked to another session")
	}
}

func TestSubmitAcceptsMultibyteDescription(t *testing.T) {
	store := memory.New()
	c := &client{t: t, h: newTestServer(t, store, 60).Handler}

	desc := strings.Repeat("é", 300)
	if rec := c.post(entryForm(desc, "1", "")); rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	records, _ := store.Load(context.Background())
	if len(records) != 1 || records[0].Description != desc {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestSubmitStorageFailure(t *testing.T) {
	s := newTestServer(t, failingStore{}, 60)
	c := &client{t: t, h: s.Handler}

	rec := c.post(entryForm("Sale", "1", ""))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Impossible d&#39;enregistrer") {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestSubmitStorageFailureLeavesNoFlash(t *testing.T) {
	s := newTestServer(t, saveFailingStore{memory.New(seedRecords()...)}, 60)
	c := &client{t: t, h: s.Handler}

	if rec := c.post(entryForm("Sale B", "50", "")); rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	rec := c.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	page := rec.Body.String()
	if strings.Contains(page, "flash-error") {
		t.Error("stale error flash shown after a failed save")
	}
	if !strings.Contains(page, `value="Sale B"`) {
		t.Error("typed description should be kept")
	}
}

func TestSubmitRateLimited(t *testing.T) {
	s := newTestServer(t, memory.New(), 1)
	c := &client{t: t, h: s.Handler}

	c.post(entryForm("A", "1", ""))
	rec := c.post(entryForm("B", "1", ""))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t, memory.New(seedRecords()...), 60)
	c := &client{t: t, h: s.Handler}

	rec := c.get("/export.csv")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="livre_journal.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines: %q", len(lines), rec.Body.String())
	}
	if lines[0] != ",Date,Description,Débit,Crédit" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "0,2024-03-01 09:00:00,Sale A,100,0") {
		t.Errorf("first row = %q", lines[1])
	}
}

func TestSummaryJSON(t *testing.T) {
	s := newTestServer(t, memory.New(seedRecords()...), 60)
	c := &client{t: t, h: s.Handler}

	rec := c.get("/api/summary")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Count != 2 || got.TotalBalance != "60" || got.Currency != "CFA" {
		t.Errorf("unexpected summary %+v", got)
	}
	if got.Month.Year != 2024 || got.Month.Month != 3 || got.Month.Entries != 1 || got.Month.Debit != "100" || got.Month.Balance != "100" {
		t.Errorf("unexpected month %+v", got.Month)
	}
}

func TestHealthAndReadiness(t *testing.T) {
	ok := &client{t: t, h: newTestServer(t, memory.New(), 60).Handler}
	if rec := ok.get("/healthz"); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}
	if rec := ok.get("/readyz"); rec.Code != http.StatusOK {
		t.Errorf("readyz = %d", rec.Code)
	}

	broken := &client{t: t, h: newTestServer(t, failingStore{}, 60).Handler}
	if rec := broken.get("/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with failing store = %d", rec.Code)
	}
	if rec := broken.get("/"); rec.Code != http.StatusInternalServerError {
		t.Errorf("index with failing store = %d", rec.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	c := &client{t: t, h: newTestServer(t, memory.New(), 60).Handler}
	rec := c.get("/static/style.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Cache-Control"), "max-age=3600") {
		t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  Loyer\x00 mars\t "); got != "Loyer mars" {
		t.Errorf("sanitizeInput() = %q", got)
	}
}
