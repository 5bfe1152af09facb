// Package ledger defines the record store port the rest of the application
// talks to. Backends (memory, SQLite, Postgres) implement these interfaces;
// callers receive store failures unmodified.
package ledger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"cashtrack/internal/core"
)

// ErrNotFound is returned by updates and deletes referencing an unknown id.
var ErrNotFound = errors.New("record not found")

type (
	// BorrowerUpdate is the full-field update for a borrower. The id,
	// owner, and creation timestamp are immutable.
	BorrowerUpdate struct {
		Name  string
		Phone string
		Notes string
	}

	// TransactionUpdate is a partial update: nil fields are left untouched.
	// Kind and borrower reference are not editable.
	TransactionUpdate struct {
		Amount *core.Money
		Date   *core.Date
		Time   *string
		Notes  *string
	}

	BorrowerStore interface {
		ListBorrowers(ctx context.Context) ([]core.Borrower, error)
		GetBorrower(ctx context.Context, id string) (core.Borrower, error)
		CreateBorrower(ctx context.Context, b core.Borrower) (core.Borrower, error)
		UpdateBorrower(ctx context.Context, id string, upd BorrowerUpdate) error
		// DeleteBorrower removes the borrower and every transaction that
		// references it: no transaction may outlive its borrower.
		DeleteBorrower(ctx context.Context, id string) error
	}

	TransactionStore interface {
		// ListTransactions returns transactions for one borrower, or all
		// of them when borrowerID is empty.
		ListTransactions(ctx context.Context, borrowerID string) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, id string, upd TransactionUpdate) error
		DeleteTransaction(ctx context.Context, id string) error
	}

	RecordStore interface {
		BorrowerStore
		TransactionStore
		Close() error
	}
)

// NewID generates an opaque record identifier.
func NewID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("rec_%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
