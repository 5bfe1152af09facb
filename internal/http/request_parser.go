package http

import (
	"strings"

	"cashtrack/internal/core"
	"cashtrack/internal/ledger"
)

// transactionFromRequest converts the wire payload into a domain record.
// Amounts arrive as decimal strings ("100.50") and are stored as cents.
func transactionFromRequest(req transactionRequest) (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	clock := strings.TrimSpace(req.Time)
	if err := core.ValidateClockTime(clock); err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		BorrowerID: strings.TrimSpace(req.BorrowerID),
		Kind:       core.TransactionKind(strings.TrimSpace(req.Kind)),
		Amount:     core.Money{Cents: cents},
		Date:       date,
		Time:       clock,
		Notes:      sanitizeInput(req.Notes),
	}, nil
}

// patchFromRequest converts a partial update payload. Absent fields stay
// nil so the store leaves them untouched.
func patchFromRequest(req transactionPatch) (ledger.TransactionUpdate, error) {
	var upd ledger.TransactionUpdate

	if req.Amount != nil {
		cents, err := core.ParseDecimalToCents(*req.Amount)
		if err != nil {
			return ledger.TransactionUpdate{}, err
		}
		upd.Amount = &core.Money{Cents: cents}
	}
	if req.Date != nil {
		date, err := core.ParseDate(*req.Date)
		if err != nil {
			return ledger.TransactionUpdate{}, err
		}
		upd.Date = &date
	}
	if req.Time != nil {
		clock := strings.TrimSpace(*req.Time)
		if err := core.ValidateClockTime(clock); err != nil {
			return ledger.TransactionUpdate{}, err
		}
		upd.Time = &clock
	}
	if req.Notes != nil {
		notes := sanitizeInput(*req.Notes)
		upd.Notes = &notes
	}
	return upd, nil
}

// sanitizeInput trims whitespace and strips control characters except
// tab, newline, and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
