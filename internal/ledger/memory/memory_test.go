package memory

import (
	"context"
	"errors"
	"testing"

	"cashtrack/internal/core"
	"cashtrack/internal/ledger"
)

func TestBorrowerCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.CreateBorrower(ctx, core.Borrower{Name: "Jane", Phone: "555"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("store must assign id and creation time: %+v", created)
	}

	if err := s.UpdateBorrower(ctx, created.ID, ledger.BorrowerUpdate{Name: "Jane D", Phone: "556", Notes: "n"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetBorrower(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Jane D" || got.Phone != "556" || got.Notes != "n" {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := s.UpdateBorrower(ctx, "missing", ledger.BorrowerUpdate{Name: "x"}); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteBorrower(ctx, "missing"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteBorrowerCascades(t *testing.T) {
	ctx := context.Background()
	s := New()

	jane, _ := s.CreateBorrower(ctx, core.Borrower{Name: "Jane"})
	ali, _ := s.CreateBorrower(ctx, core.Borrower{Name: "Ali"})

	for i := 0; i < 3; i++ {
		if _, err := s.CreateTransaction(ctx, core.Transaction{
			BorrowerID: jane.ID, Kind: core.Lent, Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 1, i+1),
		}); err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}
	keep, _ := s.CreateTransaction(ctx, core.Transaction{
		BorrowerID: ali.ID, Kind: core.Received, Amount: core.Money{Cents: 50}, Date: core.NewDate(2024, 1, 9),
	})

	if err := s.DeleteBorrower(ctx, jane.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	orphaned, err := s.ListTransactions(ctx, jane.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orphaned) != 0 {
		t.Fatalf("cascade failed, %d transactions remain", len(orphaned))
	}

	remaining, _ := s.ListTransactions(ctx, "")
	if len(remaining) != 1 || remaining[0].ID != keep.ID {
		t.Fatalf("unrelated transaction lost: %+v", remaining)
	}
}

func TestTransactionPartialUpdate(t *testing.T) {
	ctx := context.Background()
	s := New()

	b, _ := s.CreateBorrower(ctx, core.Borrower{Name: "Jane"})
	created, _ := s.CreateTransaction(ctx, core.Transaction{
		BorrowerID: b.ID, Kind: core.Lent, Amount: core.Money{Cents: 100},
		Date: core.NewDate(2024, 1, 5), Time: "14:30", Notes: "old",
	})

	amount := core.Money{Cents: 250}
	if err := s.UpdateTransaction(ctx, created.ID, ledger.TransactionUpdate{Amount: &amount}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.GetTransaction(ctx, created.ID)
	if got.Amount.Cents != 250 {
		t.Fatalf("amount not updated: %+v", got)
	}
	// Untouched fields survive a partial update.
	if got.Time != "14:30" || got.Notes != "old" || got.Kind != core.Lent {
		t.Fatalf("partial update clobbered fields: %+v", got)
	}

	if err := s.DeleteTransaction(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTransaction(ctx, created.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
