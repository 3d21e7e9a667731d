package http

import (
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"journal/internal/core"
	"journal/internal/report"
	"journal/internal/session"
)

var monthNames = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// Flash messages shown after a submit.
const (
	msgEntryAdded      = "Nouvelle entrée ajoutée avec succès !"
	msgMissingFields   = "Veuillez remplir la description et au moins l'un des montants (débit ou crédit)."
	msgInvalidAmount   = "Les montants doivent être des nombres positifs."
	msgDuplicateEntry  = "Cette entrée existe déjà dans le livre journal."
	msgAmountTooLarge  = "Les montants sont trop grands."
	msgDescriptionLong = "La description ne doit pas dépasser 500 caractères."
	msgStorageFailure  = "Impossible d'enregistrer l'entrée. Réessayez plus tard."
	msgLoadFailure     = "Impossible de lire le livre journal."
	msgRateLimited     = "Trop de requêtes. Réessayez plus tard."
)

// row is one line of the journal table. Index is the position in the file,
// matching the first column of the CSV export.
type row struct {
	Index       int
	Date        string
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

type pageData struct {
	Pending    session.Pending
	Flash      *session.Flash
	Rows       []row
	Summary    report.Summary
	Currency   string
	MonthLabel string
}

func newPageData(records []core.Transaction, state session.State, flash *session.Flash, currency string, now time.Time) pageData {
	rows := make([]row, len(records))
	for i, r := range records {
		rows[i] = row{
			Index:       i,
			Date:        r.Date,
			Description: r.Description,
			Debit:       r.Debit,
			Credit:      r.Credit,
		}
	}
	return pageData{
		Pending:    state.Pending,
		Flash:      flash,
		Rows:       rows,
		Summary:    report.Summarize(records, now),
		Currency:   currency,
		MonthLabel: monthLabel(now),
	}
}

func monthLabel(t time.Time) string {
	return fmt.Sprintf("%s %d", monthNames[t.Month()-1], t.Year())
}

var templateFuncs = template.FuncMap{
	"amount": core.FormatAmount,
	"signed": func(d decimal.Decimal) string {
		if d.IsPositive() {
			return "+" + core.FormatAmount(d)
		}
		return core.FormatAmount(d)
	},
	"dateOr": func(fallback, date string) string {
		if date == "" {
			return fallback
		}
		return date
	},
}
