package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cashtrack/internal/amqp"
	"cashtrack/internal/core"
	"cashtrack/internal/ledger"
	"cashtrack/internal/storage"
)

// PendingSource is the slice of the SQLite repository the backup worker
// needs: transaction lookups plus backup bookkeeping.
type PendingSource interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	GetBorrower(ctx context.Context, id string) (core.Borrower, error)
	GetPendingBackups(ctx context.Context, limit int) ([]storage.PendingBackup, error)
	MarkBackedUp(ctx context.Context, id string) error
	MarkBackupError(ctx context.Context, id string) error
}

// Appender writes one transaction row to the external backup journal.
type Appender interface {
	AppendTransaction(ctx context.Context, borrowerName string, t core.Transaction, version int64) (string, error)
}

// BackupProcessor copies transaction rows to the append-only journal,
// driven either by queue messages or by the periodic pending scan.
type BackupProcessor struct {
	store     PendingSource
	appender  Appender
	batchSize int
}

func NewBackupProcessor(store PendingSource, appender Appender, batchSize int) *BackupProcessor {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &BackupProcessor{
		store:     store,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleBackupMessage backs up a single transaction named by a queue
// message. Returning an error nacks the message for redelivery, except
// when the transaction no longer exists: a row deleted between publish
// and delivery is acked and skipped.
func (p *BackupProcessor) HandleBackupMessage(ctx context.Context, msg *amqp.BackupMessage) error {
	if err := p.backupOne(ctx, msg.ID, msg.Version); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			slog.WarnContext(ctx, "Transaction gone before backup, skipping", "id", msg.ID)
			return nil
		}
		return err
	}
	return nil
}

// ProcessPending drains one batch of rows still marked pending. Failures
// on individual rows are recorded and do not stop the batch.
func (p *BackupProcessor) ProcessPending(ctx context.Context) error {
	pending, err := p.store.GetPendingBackups(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("get pending backups: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending backups", "count", len(pending))

	var failed int
	for _, row := range pending {
		if err := p.backupOne(ctx, row.ID, row.Version); err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				continue
			}
			failed++
			slog.ErrorContext(ctx, "Backup failed", "id", row.ID, "error", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d backups failed", failed, len(pending))
	}
	return nil
}

func (p *BackupProcessor) backupOne(ctx context.Context, id string, version int64) error {
	t, err := p.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	borrowerName := "Unknown"
	if b, err := p.store.GetBorrower(ctx, t.BorrowerID); err == nil {
		borrowerName = b.Name
	}

	updatedRange, err := p.appender.AppendTransaction(ctx, borrowerName, t, version)
	if err != nil {
		if markErr := p.store.MarkBackupError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark backup error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append transaction %s: %w", id, err)
	}

	if err := p.store.MarkBackedUp(ctx, id); err != nil {
		return fmt.Errorf("mark backed up %s: %w", id, err)
	}

	slog.InfoContext(ctx, "Transaction backed up", "id", id, "range", updatedRange)
	return nil
}
