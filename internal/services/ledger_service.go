// Package services orchestrates record-store writes, derived reads, and
// the best-effort backup pipeline.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"cashtrack/internal/core"
	"cashtrack/internal/ledger"
)

// BackupPublisher queues a transaction for the backup worker.
type BackupPublisher interface {
	PublishBackup(ctx context.Context, id string, version int64) error
}

// LedgerService is the input-validation boundary in front of the record
// store. Store errors pass through unmodified so callers can map them;
// backup publishing never fails a request.
type LedgerService struct {
	store     ledger.RecordStore
	publisher BackupPublisher
	owner     string
}

func NewLedgerService(store ledger.RecordStore, publisher BackupPublisher, owner string) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
		owner:     owner,
	}
}

func (s *LedgerService) AddBorrower(ctx context.Context, b core.Borrower) (core.Borrower, error) {
	b.OwnerID = s.owner
	if err := b.Validate(); err != nil {
		return core.Borrower{}, err
	}
	created, err := s.store.CreateBorrower(ctx, b)
	if err != nil {
		return core.Borrower{}, fmt.Errorf("create borrower: %w", err)
	}
	return created, nil
}

func (s *LedgerService) UpdateBorrower(ctx context.Context, id string, upd ledger.BorrowerUpdate) error {
	if err := (core.Borrower{Name: upd.Name}).Validate(); err != nil {
		return err
	}
	return s.store.UpdateBorrower(ctx, id, upd)
}

func (s *LedgerService) DeleteBorrower(ctx context.Context, id string) error {
	return s.store.DeleteBorrower(ctx, id)
}

// AddTransaction validates the record and checks the borrower reference
// before writing: no transaction may reference a nonexistent borrower.
func (s *LedgerService) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.OwnerID = s.owner
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if _, err := s.store.GetBorrower(ctx, t.BorrowerID); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	// Queue for backup; a publish failure is logged and dropped because the
	// periodic pending scan will pick the row up later.
	if s.publisher != nil {
		if err := s.publisher.PublishBackup(ctx, created.ID, 1); err != nil {
			slog.ErrorContext(ctx, "Failed to publish backup message",
				"id", created.ID, "error", err)
		}
	}

	return created, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, id string, upd ledger.TransactionUpdate) error {
	if upd.Amount != nil {
		if err := upd.Amount.Validate(); err != nil {
			return err
		}
	}
	if upd.Date != nil {
		if err := upd.Date.Validate(); err != nil {
			return err
		}
	}
	if upd.Time != nil {
		if err := core.ValidateClockTime(*upd.Time); err != nil {
			return err
		}
	}
	return s.store.UpdateTransaction(ctx, id, upd)
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	return s.store.DeleteTransaction(ctx, id)
}

// Summaries recomputes every borrower's balance from the current record
// set. Nothing is cached: the result always reflects the store at read
// time.
func (s *LedgerService) Summaries(ctx context.Context) ([]core.BorrowerSummary, error) {
	borrowers, err := s.store.ListBorrowers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list borrowers: %w", err)
	}
	transactions, err := s.store.ListTransactions(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return core.Summarize(borrowers, transactions), nil
}

func (s *LedgerService) Stats(ctx context.Context) (core.DashboardStats, error) {
	summaries, err := s.Summaries(ctx)
	if err != nil {
		return core.DashboardStats{}, err
	}
	return core.ComputeDashboardStats(summaries), nil
}

// BorrowerTransactions returns one borrower's transactions newest first.
func (s *LedgerService) BorrowerTransactions(ctx context.Context, borrowerID string) ([]core.Transaction, error) {
	if _, err := s.store.GetBorrower(ctx, borrowerID); err != nil {
		return nil, err
	}
	transactions, err := s.store.ListTransactions(ctx, borrowerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return core.TransactionsForBorrower(transactions, borrowerID), nil
}

// ExportCSV renders the canonical CSV report from the current record set.
func (s *LedgerService) ExportCSV(ctx context.Context) (string, error) {
	borrowers, err := s.store.ListBorrowers(ctx)
	if err != nil {
		return "", fmt.Errorf("list borrowers: %w", err)
	}
	transactions, err := s.store.ListTransactions(ctx, "")
	if err != nil {
		return "", fmt.Errorf("list transactions: %w", err)
	}
	return core.ExportCSV(borrowers, transactions), nil
}
