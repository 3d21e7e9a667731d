package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"journal/internal/core"
	applog "journal/internal/log"
	"journal/internal/report"
	"journal/internal/session"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready only when the journal can be loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.entries.Records(r.Context()); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Readiness check failed", applog.FieldError, err)
		http.Error(w, "journal unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	body, err := s.renderPage(r, id)
	if err != nil {
		InternalServerError(msgLoadFailure).Write(w)
		return
	}
	NewResponse().BodyHTML(body).Write(w)
}

// renderPage loads the journal and renders the full page for session id,
// consuming its flash message.
func (s *Server) renderPage(r *http.Request, id string) ([]byte, error) {
	ctx := r.Context()

	records, err := s.entries.Records(ctx)
	if err != nil {
		s.events.LogError(ctx, "Failed to load journal", err, applog.ComponentJournal, applog.OpLoad,
			applog.NewFields().WithErrorType(applog.ErrorTypeStorage))
		return nil, err
	}

	state, _ := s.sessions.Get(id)
	flash := s.sessions.TakeFlash(id)
	data := newPageData(records, state, flash, s.currency, s.now())

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.events.LogError(ctx, "Index template execution failed", err, applog.ComponentTemplate, applog.OpRender,
			applog.NewFields().WithErrorType(applog.ErrorTypeInternal))
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		logger.WarnContext(ctx, "Parse form error", applog.FieldError, err)
		BadRequestError("Formulaire invalide").Write(w)
		return
	}

	id := s.sessionID(w, r)
	state, _ := s.sessions.Get(id)
	state.Pending = session.Pending{
		Description: sanitizeInput(r.PostForm.Get("description")),
		Debit:       strings.TrimSpace(r.PostForm.Get("debit")),
		Credit:      strings.TrimSpace(r.PostForm.Get("credit")),
	}

	err := s.submit(r, state.Pending)
	switch {
	case err == nil:
		state.Pending = session.DefaultPending()
		state.Flash = &session.Flash{Kind: session.FlashSuccess, Message: msgEntryAdded}
	case errors.Is(err, core.ErrValidation):
		state.Flash = &session.Flash{Kind: session.FlashError, Message: rejectionMessage(err)}
	default:
		// pending input is kept; the 500 page carries the message, so no flash
		s.events.LogError(ctx, "Failed to store entry", err, applog.ComponentJournal, applog.OpSave,
			applog.NewFields().WithErrorType(applog.ErrorTypeStorage))
		s.sessions.Put(id, state)
		InternalServerError(msgStorageFailure).Write(w)
		return
	}
	s.sessions.Put(id, state)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// submit parses the pending amounts and hands the draft to the entry service.
func (s *Server) submit(r *http.Request, p session.Pending) error {
	tx, err := s.submitDraft(r, p)
	if err != nil {
		s.logRejection(r, err)
		return err
	}
	s.events.LogEntryCreated(r.Context(), tx.Date, tx.Description, tx.Debit.String(), tx.Credit.String())
	return nil
}

func (s *Server) submitDraft(r *http.Request, p session.Pending) (core.Transaction, error) {
	debit, err := core.ParseAmount(p.Debit)
	if err != nil {
		return core.Transaction{}, err
	}
	credit, err := core.ParseAmount(p.Credit)
	if err != nil {
		return core.Transaction{}, err
	}
	return s.entries.Submit(r.Context(), core.Draft{Description: p.Description, Debit: debit, Credit: credit})
}

func (s *Server) logRejection(r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrDuplicate):
		s.events.LogRejected(r.Context(), err, applog.ErrorTypeDuplicate)
	case errors.Is(err, core.ErrValidation):
		s.events.LogRejected(r.Context(), err, applog.ErrorTypeValidation)
	}
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrDuplicate):
		return msgDuplicateEntry
	case errors.Is(err, core.ErrInvalidAmount), errors.Is(err, core.ErrNegativeAmount):
		return msgInvalidAmount
	case errors.Is(err, core.ErrAmountOutOfRange):
		return msgAmountTooLarge
	case errors.Is(err, core.ErrDescriptionLong):
		return msgDescriptionLong
	default:
		return msgMissingFields
	}
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.clientIPs.ClientIP(r),
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError(msgRateLimited).Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := s.entries.Records(ctx)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Failed to load journal for export", applog.FieldError, err)
		InternalServerError(msgLoadFailure).Write(w)
		return
	}

	data, err := report.ExportCSV(records)
	if err != nil {
		s.events.LogError(ctx, "CSV export failed", err, applog.ComponentExport, applog.OpExport, nil)
		InternalServerError("Export impossible").Write(w)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.ExportFilename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type summaryResponse struct {
	Count        int          `json:"count"`
	TotalBalance string       `json:"total_balance"`
	Currency     string       `json:"currency"`
	Month        monthSummary `json:"month"`
}

type monthSummary struct {
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Entries int    `json:"entries"`
	Debit   string `json:"debit"`
	Credit  string `json:"credit"`
	Balance string `json:"balance"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := s.entries.Records(ctx)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Failed to load journal for summary", applog.FieldError, err)
		http.Error(w, msgLoadFailure, http.StatusInternalServerError)
		return
	}

	sum := report.Summarize(records, s.now())
	resp := summaryResponse{
		Count:        sum.Count,
		TotalBalance: sum.TotalBalance.String(),
		Currency:     s.currency,
		Month: monthSummary{
			Year:    sum.Year,
			Month:   sum.MonthNumber,
			Entries: len(sum.MonthRecords),
			Debit:   sum.Month.Debit.String(),
			Credit:  sum.Month.Credit.String(),
			Balance: sum.Month.Balance.String(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Failed to encode summary", applog.FieldError, err)
	}
}
