package core

import "sort"

// BorrowerSummary is a borrower plus balance fields derived from the current
// transaction set. It is recomputed on every read and never persisted.
type BorrowerSummary struct {
	Borrower
	TotalLent     Money
	TotalReceived Money
	Balance       Money
}

// DashboardStats aggregates all borrower summaries for the dashboard.
type DashboardStats struct {
	TotalLent        Money
	TotalReceived    Money
	TotalOutstanding Money
	ActiveBorrowers  int
}

// Summarize reduces the transaction set into one summary per borrower, in
// the borrowers' input order. Balance is lent minus received and may be
// negative: a borrower who overpaid is a valid, displayable state, not an
// error. Amounts are summed as given; validation happened at the input
// boundary.
func Summarize(borrowers []Borrower, transactions []Transaction) []BorrowerSummary {
	type totals struct {
		lent, received int64
	}
	byBorrower := make(map[string]totals, len(borrowers))
	for _, t := range transactions {
		tot := byBorrower[t.BorrowerID]
		switch t.Kind {
		case Lent:
			tot.lent += t.Amount.Cents
		case Received:
			tot.received += t.Amount.Cents
		}
		byBorrower[t.BorrowerID] = tot
	}

	summaries := make([]BorrowerSummary, len(borrowers))
	for i, b := range borrowers {
		tot := byBorrower[b.ID]
		summaries[i] = BorrowerSummary{
			Borrower:      b,
			TotalLent:     Money{Cents: tot.lent},
			TotalReceived: Money{Cents: tot.received},
			Balance:       Money{Cents: tot.lent - tot.received},
		}
	}
	return summaries
}

// ComputeDashboardStats folds summaries into global totals.
// TotalOutstanding is the plain sum of balances: a negative balance reduces
// it. ActiveBorrowers counts balances strictly greater than zero.
func ComputeDashboardStats(summaries []BorrowerSummary) DashboardStats {
	var stats DashboardStats
	for _, s := range summaries {
		stats.TotalLent.Cents += s.TotalLent.Cents
		stats.TotalReceived.Cents += s.TotalReceived.Cents
		stats.TotalOutstanding.Cents += s.Balance.Cents
		if s.Balance.Cents > 0 {
			stats.ActiveBorrowers++
		}
	}
	return stats
}

// TransactionsForBorrower returns the borrower's transactions newest first,
// ordered by date plus time of day. A missing time sorts at the start of its
// date; identical instants keep their relative input order.
func TransactionsForBorrower(transactions []Transaction, borrowerID string) []Transaction {
	var out []Transaction
	for _, t := range transactions {
		if t.BorrowerID == borrowerID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt().After(out[j].OccurredAt())
	})
	return out
}
