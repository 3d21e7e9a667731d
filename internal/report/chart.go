package report

import (
	"strconv"

	"github.com/shopspring/decimal"

	"journal/internal/core"
)

// Chart geometry in SVG user units.
const (
	ChartHeight   = 200
	barWidth      = 14
	barGap        = 2
	groupGap      = 12
	chartPaddingX = 8
)

// Bar is one record of the chart: a debit bar and a credit bar side by side.
type Bar struct {
	Index        int
	Label        string
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	DebitX       int
	CreditX      int
	DebitY       int
	CreditY      int
	DebitHeight  int
	CreditHeight int
}

// Chart is a two-series bar chart keyed by journal position.
type Chart struct {
	Bars   []Bar
	Max    decimal.Decimal
	Width  int
	Height int
}

func (c Chart) Empty() bool { return len(c.Bars) == 0 }

// BarWidth is exposed for templates.
func (c Chart) BarWidth() int { return barWidth }

// BuildChart lays out one bar group per record. positions[i] is the journal
// index of records[i] and labels its bar; with nil positions bars are labelled
// by their order. Heights are scaled to the largest amount in either series.
func BuildChart(records []core.Transaction, positions []int) Chart {
	if len(records) == 0 {
		return Chart{}
	}

	peak := decimal.Zero
	for _, r := range records {
		if r.Debit.GreaterThan(peak) {
			peak = r.Debit
		}
		if r.Credit.GreaterThan(peak) {
			peak = r.Credit
		}
	}

	c := Chart{Max: peak, Height: ChartHeight}
	x := chartPaddingX
	for i, r := range records {
		idx := i
		if i < len(positions) {
			idx = positions[i]
		}
		b := Bar{
			Index:        idx,
			Label:        strconv.Itoa(idx),
			Debit:        r.Debit,
			Credit:       r.Credit,
			DebitX:       x,
			CreditX:      x + barWidth + barGap,
			DebitHeight:  scale(r.Debit, peak),
			CreditHeight: scale(r.Credit, peak),
		}
		b.DebitY = ChartHeight - b.DebitHeight
		b.CreditY = ChartHeight - b.CreditHeight
		c.Bars = append(c.Bars, b)
		x += 2*barWidth + barGap + groupGap
	}
	c.Width = x - groupGap + chartPaddingX
	return c
}

func scale(v, peak decimal.Decimal) int {
	if !peak.IsPositive() || !v.IsPositive() {
		return 0
	}
	h := int(v.Mul(decimal.NewFromInt(ChartHeight)).Div(peak).Round(0).IntPart())
	// keep tiny amounts visible
	if h < 1 {
		h = 1
	}
	return h
}
