// Package storage implements the SQLite-backed record store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cashtrack/internal/core"
	"cashtrack/internal/ledger"

	_ "modernc.org/sqlite"
)

const (
	BackupPending = "pending"
	BackupDone    = "done"
	BackupError   = "error"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ ledger.RecordStore = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListBorrowers(ctx context.Context) ([]core.Borrower, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, phone, notes, owner_id, created_at
		FROM borrowers
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list borrowers: %w", err)
	}
	defer rows.Close()

	var out []core.Borrower
	for rows.Next() {
		var b core.Borrower
		if err := rows.Scan(&b.ID, &b.Name, &b.Phone, &b.Notes, &b.OwnerID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan borrower: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetBorrower(ctx context.Context, id string) (core.Borrower, error) {
	var b core.Borrower
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, phone, notes, owner_id, created_at
		FROM borrowers WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &b.Phone, &b.Notes, &b.OwnerID, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Borrower{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Borrower{}, fmt.Errorf("get borrower: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) CreateBorrower(ctx context.Context, b core.Borrower) (core.Borrower, error) {
	b.ID = ledger.NewID()
	b.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO borrowers (id, name, phone, notes, owner_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Phone, b.Notes, b.OwnerID, b.CreatedAt)
	if err != nil {
		return core.Borrower{}, fmt.Errorf("create borrower: %w", err)
	}

	slog.InfoContext(ctx, "Borrower saved to SQLite", "id", b.ID, "name", b.Name)
	return b, nil
}

func (r *SQLiteRepository) UpdateBorrower(ctx context.Context, id string, upd ledger.BorrowerUpdate) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE borrowers SET name = ?, phone = ?, notes = ? WHERE id = ?`,
		upd.Name, upd.Phone, upd.Notes, id)
	if err != nil {
		return fmt.Errorf("update borrower: %w", err)
	}
	return requireRow(res)
}

// DeleteBorrower removes the borrower and its transactions in one SQL
// transaction. The explicit child delete keeps the cascade invariant even
// on databases created before foreign keys were enforced.
func (r *SQLiteRepository) DeleteBorrower(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete borrower: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE borrower_id = ?`, id); err != nil {
		return fmt.Errorf("delete borrower transactions: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM borrowers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete borrower: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete borrower: %w", err)
	}

	slog.InfoContext(ctx, "Borrower deleted with transactions", "id", id)
	return nil
}

const transactionColumns = `id, borrower_id, kind, amount_cents, tx_date, tx_time, notes, owner_id, created_at`

func (r *SQLiteRepository) ListTransactions(ctx context.Context, borrowerID string) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY created_at, id`
	args := []any{}
	if borrowerID != "" {
		query = `SELECT ` + transactionColumns + ` FROM transactions WHERE borrower_id = ? ORDER BY created_at, id`
		args = append(args, borrowerID)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ledger.ErrNotFound
	}
	return t, err
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = ledger.NewID()
	t.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, borrower_id, kind, amount_cents, tx_date, tx_time, notes, owner_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.BorrowerID, string(t.Kind), t.Amount.Cents, t.Date.String(), t.Time, t.Notes, t.OwnerID, t.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"borrower_id", t.BorrowerID,
		"kind", string(t.Kind),
		"amount_cents", t.Amount.Cents)
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id string, upd ledger.TransactionUpdate) error {
	current, err := r.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if upd.Amount != nil {
		current.Amount = *upd.Amount
	}
	if upd.Date != nil {
		current.Date = *upd.Date
	}
	if upd.Time != nil {
		current.Time = *upd.Time
	}
	if upd.Notes != nil {
		current.Notes = *upd.Notes
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount_cents = ?, tx_date = ?, tx_time = ?, notes = ?,
		    backup_status = ?, version = version + 1
		WHERE id = ?`,
		current.Amount.Cents, current.Date.String(), current.Time, current.Notes,
		BackupPending, id)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

// PendingBackup is the minimal row identity a backup queue message carries.
type PendingBackup struct {
	ID      string
	Version int64
}

// GetPendingBackups returns transactions not yet appended to the backup
// target, oldest first.
func (r *SQLiteRepository) GetPendingBackups(ctx context.Context, limit int) ([]PendingBackup, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version FROM transactions
		WHERE backup_status = ?
		ORDER BY created_at, id
		LIMIT ?`, BackupPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending backups: %w", err)
	}
	defer rows.Close()

	var out []PendingBackup
	for rows.Next() {
		var p PendingBackup
		if err := rows.Scan(&p.ID, &p.Version); err != nil {
			return nil, fmt.Errorf("scan pending backup: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkBackedUp marks a transaction as successfully appended to the backup.
func (r *SQLiteRepository) MarkBackedUp(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET backup_status = ? WHERE id = ?`, BackupDone, id)
	if err != nil {
		return fmt.Errorf("mark backed up: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction marked as backed up", "id", id)
	return nil
}

// MarkBackupError marks a transaction whose backup append failed.
func (r *SQLiteRepository) MarkBackupError(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET backup_status = ? WHERE id = ?`, BackupError, id)
	if err != nil {
		return fmt.Errorf("mark backup error: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Transaction marked with backup error", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t    core.Transaction
		kind string
		date string
	)
	err := row.Scan(&t.ID, &t.BorrowerID, &kind, &t.Amount.Cents, &date, &t.Time, &t.Notes, &t.OwnerID, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Kind = core.TransactionKind(kind)
	parsed, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	t.Date = parsed
	return t, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
