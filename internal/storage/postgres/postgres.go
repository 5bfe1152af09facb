// Package postgres implements the record store on a hosted Postgres
// database, matching the SQLite backend's semantics.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cashtrack/internal/core"
	"cashtrack/internal/ledger"
)

const schema = `
CREATE TABLE IF NOT EXISTS borrowers (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    phone      TEXT NOT NULL DEFAULT '',
    notes      TEXT NOT NULL DEFAULT '',
    owner_id   TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS transactions (
    id           TEXT PRIMARY KEY,
    borrower_id  TEXT NOT NULL REFERENCES borrowers(id) ON DELETE CASCADE,
    kind         TEXT NOT NULL CHECK (kind IN ('lent', 'received')),
    amount_cents BIGINT NOT NULL,
    tx_date      TEXT NOT NULL,
    tx_time      TEXT NOT NULL DEFAULT '',
    notes        TEXT NOT NULL DEFAULT '',
    owner_id     TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_transactions_borrower ON transactions(borrower_id);
`

type Store struct {
	pool *pgxpool.Pool
}

var _ ledger.RecordStore = (*Store)(nil)

func NewStore(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) ListBorrowers(ctx context.Context) ([]core.Borrower, error) {
	rows, err := s.pool.Query(ctx, `
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

func (s *Store) GetBorrower(ctx context.Context, id string) (core.Borrower, error) {
	var b core.Borrower
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, phone, notes, owner_id, created_at
		FROM borrowers WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.Phone, &b.Notes, &b.OwnerID, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Borrower{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Borrower{}, fmt.Errorf("get borrower: %w", err)
	}
	return b, nil
}

func (s *Store) CreateBorrower(ctx context.Context, b core.Borrower) (core.Borrower, error) {
	b.ID = ledger.NewID()
	b.CreatedAt = time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO borrowers (id, name, phone, notes, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		b.ID, b.Name, b.Phone, b.Notes, b.OwnerID, b.CreatedAt)
	if err != nil {
		return core.Borrower{}, fmt.Errorf("create borrower: %w", err)
	}
	return b, nil
}

func (s *Store) UpdateBorrower(ctx context.Context, id string, upd ledger.BorrowerUpdate) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE borrowers SET name = $1, phone = $2, notes = $3 WHERE id = $4`,
		upd.Name, upd.Phone, upd.Notes, id)
	if err != nil {
		return fmt.Errorf("update borrower: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteBorrower(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete borrower: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM transactions WHERE borrower_id = $1`, id); err != nil {
		return fmt.Errorf("delete borrower transactions: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM borrowers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete borrower: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return tx.Commit(ctx)
}

const transactionColumns = `id, borrower_id, kind, amount_cents, tx_date, tx_time, notes, owner_id, created_at`

func (s *Store) ListTransactions(ctx context.Context, borrowerID string) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY created_at, id`
	args := []any{}
	if borrowerID != "" {
		query = `SELECT ` + transactionColumns + ` FROM transactions WHERE borrower_id = $1 ORDER BY created_at, id`
		args = append(args, borrowerID)
	}

	rows, err := s.pool.Query(ctx, query, args...)
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

func (s *Store) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, ledger.ErrNotFound
	}
	return t, err
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = ledger.NewID()
	t.CreatedAt = time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transactions (id, borrower_id, kind, amount_cents, tx_date, tx_time, notes, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.BorrowerID, string(t.Kind), t.Amount.Cents, t.Date.String(), t.Time, t.Notes, t.OwnerID, t.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, id string, upd ledger.TransactionUpdate) error {
	current, err := s.GetTransaction(ctx, id)
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

	tag, err := s.pool.Exec(ctx, `
		UPDATE transactions SET amount_cents = $1, tx_date = $2, tx_time = $3, notes = $4 WHERE id = $5`,
		current.Amount.Cents, current.Date.String(), current.Time, current.Notes, id)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		t    core.Transaction
		kind string
		date string
	)
	err := row.Scan(&t.ID, &t.BorrowerID, &kind, &t.Amount.Cents, &date, &t.Time, &t.Notes, &t.OwnerID, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
