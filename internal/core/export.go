package core

import (
	"sort"
	"strings"
)

// csvHeader is fixed for compatibility with exports produced by earlier
// versions of the app; column set and order must not change.
const csvHeader = "Borrower,Type,Amount,Date,Time,Notes"

// ExportCSV serializes transactions into the canonical CSV report. Rows are
// ordered by calendar date descending, insertion order on equal dates; the
// time column does not participate in the ordering. The borrower column
// carries the borrower's current name, or "Unknown" if the reference cannot
// be resolved. All fields are double-quoted with `""` escaping except
// Amount, which is emitted as a bare decimal so the file round-trips
// numerically. Rows are joined with a single newline and there is no
// trailing newline.
func ExportCSV(borrowers []Borrower, transactions []Transaction) string {
	names := make(map[string]string, len(borrowers))
	for _, b := range borrowers {
		names[b.ID] = b.Name
	}

	rows := make([]Transaction, len(transactions))
	copy(rows, transactions)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.After(rows[j].Date.Time)
	})

	var sb strings.Builder
	sb.WriteString(csvHeader)
	for _, t := range rows {
		name, ok := names[t.BorrowerID]
		if !ok || name == "" {
			name = "Unknown"
		}
		sb.WriteByte('\n')
		sb.WriteString(quoteCSV(name))
		sb.WriteByte(',')
		sb.WriteString(quoteCSV(string(t.Kind)))
		sb.WriteByte(',')
		sb.WriteString(t.Amount.Decimal())
		sb.WriteByte(',')
		sb.WriteString(quoteCSV(t.Date.String()))
		sb.WriteByte(',')
		sb.WriteString(quoteCSV(t.Time))
		sb.WriteByte(',')
		sb.WriteString(quoteCSV(t.Notes))
	}
	return sb.String()
}

func quoteCSV(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
