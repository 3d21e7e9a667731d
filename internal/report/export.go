package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"journal/internal/core"
)

// ExportFilename is the suggested name of the CSV download.
const ExportFilename = "livre_journal.csv"

var exportHeader = []string{"", "Date", "Description", "Débit", "Crédit"}

// ExportCSV renders the full collection as CSV with a leading, unnamed row index
// column starting at 0.
func ExportCSV(records []core.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for i, r := range records {
		row := []string{
			strconv.Itoa(i),
			r.Date,
			r.Description,
			r.Debit.String(),
			r.Credit.String(),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
