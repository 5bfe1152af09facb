package core

import (
	"reflect"
	"testing"
)

func tx(id, borrowerID string, kind TransactionKind, cents int64, date Date, clock string) Transaction {
	return Transaction{
		ID:         id,
		BorrowerID: borrowerID,
		Kind:       kind,
		Amount:     Money{Cents: cents},
		Date:       date,
		Time:       clock,
	}
}

func TestSummarizeNoTransactions(t *testing.T) {
	borrowers := []Borrower{{ID: "b1", Name: "Jane"}, {ID: "b2", Name: "Ali"}}

	for _, txns := range [][]Transaction{nil, {}} {
		summaries := Summarize(borrowers, txns)
		if len(summaries) != 2 {
			t.Fatalf("expected 2 summaries, got %d", len(summaries))
		}
		for _, s := range summaries {
			if s.TotalLent.Cents != 0 || s.TotalReceived.Cents != 0 || s.Balance.Cents != 0 {
				t.Fatalf("borrower %s: expected all zeros, got %+v", s.ID, s)
			}
		}
	}
}

func TestSummarizeLentAndReceived(t *testing.T) {
	borrowers := []Borrower{{ID: "x", Name: "X"}}
	txns := []Transaction{
		tx("t1", "x", Lent, 50000, NewDate(2024, 1, 1), ""),
		tx("t2", "x", Received, 20000, NewDate(2024, 1, 10), ""),
	}

	summaries := Summarize(borrowers, txns)
	s := summaries[0]
	if s.TotalLent.Cents != 50000 || s.TotalReceived.Cents != 20000 || s.Balance.Cents != 30000 {
		t.Fatalf("unexpected summary: %+v", s)
	}

	listed := TransactionsForBorrower(txns, "x")
	if listed[0].ID != "t2" {
		t.Fatalf("expected most recent transaction first, got %s", listed[0].ID)
	}
}

func TestSummarizeBalanceInvariant(t *testing.T) {
	borrowers := []Borrower{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	txns := []Transaction{
		tx("t1", "a", Lent, 123, NewDate(2024, 2, 1), ""),
		tx("t2", "a", Received, 456, NewDate(2024, 2, 2), ""),
		tx("t3", "b", Lent, 99999, NewDate(2024, 2, 3), ""),
		tx("t4", "c", Received, 1, NewDate(2024, 2, 4), ""),
	}
	for _, s := range Summarize(borrowers, txns) {
		if s.Balance.Cents != s.TotalLent.Cents-s.TotalReceived.Cents {
			t.Fatalf("borrower %s: balance %d != lent %d - received %d",
				s.ID, s.Balance.Cents, s.TotalLent.Cents, s.TotalReceived.Cents)
		}
	}
}

func TestSummarizeNegativeBalance(t *testing.T) {
	borrowers := []Borrower{{ID: "b1", Name: "Overpayer"}}
	txns := []Transaction{tx("t1", "b1", Received, 5000, NewDate(2024, 3, 1), "")}

	summaries := Summarize(borrowers, txns)
	if summaries[0].Balance.Cents != -5000 {
		t.Fatalf("expected balance -5000, got %d", summaries[0].Balance.Cents)
	}

	stats := ComputeDashboardStats(summaries)
	if stats.ActiveBorrowers != 0 {
		t.Fatalf("negative balance must not count as active, got %d", stats.ActiveBorrowers)
	}
	if stats.TotalOutstanding.Cents != -5000 {
		t.Fatalf("outstanding must pass the negative balance through, got %d", stats.TotalOutstanding.Cents)
	}
}

func TestSummarizeIdempotent(t *testing.T) {
	borrowers := []Borrower{{ID: "b1", Name: "Jane"}, {ID: "b2", Name: "Ali"}}
	txns := []Transaction{
		tx("t1", "b1", Lent, 100, NewDate(2024, 1, 1), "09:00"),
		tx("t2", "b2", Received, 200, NewDate(2024, 1, 2), ""),
	}
	first := Summarize(borrowers, txns)
	second := Summarize(borrowers, txns)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("summaries differ across identical inputs:\n%+v\n%+v", first, second)
	}
}

func TestDashboardStatsTotals(t *testing.T) {
	summaries := []BorrowerSummary{
		{Borrower: Borrower{ID: "a"}, TotalLent: Money{Cents: 1000}, TotalReceived: Money{Cents: 400}, Balance: Money{Cents: 600}},
		{Borrower: Borrower{ID: "b"}, TotalLent: Money{Cents: 0}, TotalReceived: Money{Cents: 300}, Balance: Money{Cents: -300}},
		{Borrower: Borrower{ID: "c"}, TotalLent: Money{Cents: 500}, TotalReceived: Money{Cents: 500}, Balance: Money{Cents: 0}},
	}

	stats := ComputeDashboardStats(summaries)
	if stats.TotalLent.Cents != 1500 {
		t.Fatalf("TotalLent = %d", stats.TotalLent.Cents)
	}
	if stats.TotalReceived.Cents != 1200 {
		t.Fatalf("TotalReceived = %d", stats.TotalReceived.Cents)
	}
	// Plain sum of balances: 600 - 300 + 0.
	if stats.TotalOutstanding.Cents != 300 {
		t.Fatalf("TotalOutstanding = %d", stats.TotalOutstanding.Cents)
	}
	// Strictly greater than zero: the settled borrower is not active.
	if stats.ActiveBorrowers != 1 {
		t.Fatalf("ActiveBorrowers = %d", stats.ActiveBorrowers)
	}
}

func TestTransactionsForBorrowerOrdering(t *testing.T) {
	txns := []Transaction{
		tx("morning", "b1", Lent, 100, NewDate(2024, 1, 10), "08:00"),
		tx("untimed", "b1", Lent, 100, NewDate(2024, 1, 10), ""),
		tx("evening", "b1", Lent, 100, NewDate(2024, 1, 10), "20:00"),
		tx("older", "b1", Lent, 100, NewDate(2024, 1, 5), "23:00"),
		tx("other", "b2", Lent, 100, NewDate(2024, 1, 11), ""),
	}

	got := TransactionsForBorrower(txns, "b1")
	want := []string{"evening", "morning", "untimed", "older"}
	if len(got) != len(want) {
		t.Fatalf("expected %d transactions, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestTransactionsForBorrowerStableOnTies(t *testing.T) {
	txns := []Transaction{
		tx("first", "b1", Lent, 100, NewDate(2024, 1, 10), "12:00"),
		tx("second", "b1", Received, 200, NewDate(2024, 1, 10), "12:00"),
		tx("third", "b1", Lent, 300, NewDate(2024, 1, 10), "12:00"),
	}
	got := TransactionsForBorrower(txns, "b1")
	for i, id := range []string{"first", "second", "third"} {
		if got[i].ID != id {
			t.Fatalf("tie order broken at %d: got %s", i, got[i].ID)
		}
	}
}
