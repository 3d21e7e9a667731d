// Package report derives the figures shown on the journal page.
//
// Every function here is a pure function of the record collection; nothing is
// cached and nothing is mutated.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"journal/internal/core"
)

// Totals groups the debit and credit sums of a set of records.
type Totals struct {
	Debit   decimal.Decimal
	Credit  decimal.Decimal
	Balance decimal.Decimal // Debit - Credit
}

// Summary is everything the page needs besides the raw table.
type Summary struct {
	Count        int
	TotalBalance decimal.Decimal
	Month        Totals
	MonthRecords []core.Transaction
	Chart        Chart
	Year         int
	MonthNumber  int
}

// TotalBalance returns sum(debit) - sum(credit) over all records.
func TotalBalance(records []core.Transaction) decimal.Decimal {
	return sum(records).Balance
}

// CurrentMonth keeps the records dated in now's calendar month and year.
// Records without a parseable date are dropped.
func CurrentMonth(records []core.Transaction, now time.Time) []core.Transaction {
	month, _ := currentMonth(records, now)
	return month
}

// currentMonth also returns the position in records of each kept record.
func currentMonth(records []core.Transaction, now time.Time) ([]core.Transaction, []int) {
	out := make([]core.Transaction, 0)
	var positions []int
	for i, r := range records {
		ts, ok := r.Time(now.Location())
		if !ok {
			continue
		}
		if ts.Year() == now.Year() && ts.Month() == now.Month() {
			out = append(out, r)
			positions = append(positions, i)
		}
	}
	return out, positions
}

// MonthlyTotals sums the records of now's month.
func MonthlyTotals(records []core.Transaction, now time.Time) Totals {
	return sum(CurrentMonth(records, now))
}

// Summarize computes the page figures in one pass over the month subset.
func Summarize(records []core.Transaction, now time.Time) Summary {
	month, positions := currentMonth(records, now)
	return Summary{
		Count:        len(records),
		TotalBalance: TotalBalance(records),
		Month:        sum(month),
		MonthRecords: month,
		Chart:        BuildChart(month, positions),
		Year:         now.Year(),
		MonthNumber:  int(now.Month()),
	}
}

func sum(records []core.Transaction) Totals {
	t := Totals{Debit: decimal.Zero, Credit: decimal.Zero}
	for _, r := range records {
		t.Debit = t.Debit.Add(r.Debit)
		t.Credit = t.Credit.Add(r.Credit)
	}
	t.Balance = t.Debit.Sub(t.Credit)
	return t
}
