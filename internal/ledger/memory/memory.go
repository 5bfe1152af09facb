// Package memory provides an in-process RecordStore. It backs local runs
// without a database and doubles as the test store.
package memory

import (
	"context"
	"sync"
	"time"

	"cashtrack/internal/core"
	"cashtrack/internal/ledger"
)

type Store struct {
	mu           sync.Mutex
	borrowers    []core.Borrower
	transactions []core.Transaction
}

var _ ledger.RecordStore = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) ListBorrowers(_ context.Context) ([]core.Borrower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Borrower(nil), s.borrowers...), nil
}

func (s *Store) GetBorrower(_ context.Context, id string) (core.Borrower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.borrowers {
		if b.ID == id {
			return b, nil
		}
	}
	return core.Borrower{}, ledger.ErrNotFound
}

func (s *Store) CreateBorrower(_ context.Context, b core.Borrower) (core.Borrower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = ledger.NewID()
	b.CreatedAt = time.Now().UTC()
	s.borrowers = append(s.borrowers, b)
	return b, nil
}

func (s *Store) UpdateBorrower(_ context.Context, id string, upd ledger.BorrowerUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.borrowers {
		if s.borrowers[i].ID == id {
			s.borrowers[i].Name = upd.Name
			s.borrowers[i].Phone = upd.Phone
			s.borrowers[i].Notes = upd.Notes
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *Store) DeleteBorrower(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i := range s.borrowers {
		if s.borrowers[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ledger.ErrNotFound
	}
	s.borrowers = append(s.borrowers[:idx], s.borrowers[idx+1:]...)

	kept := s.transactions[:0]
	for _, t := range s.transactions {
		if t.BorrowerID != id {
			kept = append(kept, t)
		}
	}
	s.transactions = kept
	return nil
}

func (s *Store) ListTransactions(_ context.Context, borrowerID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if borrowerID == "" {
		return append([]core.Transaction(nil), s.transactions...), nil
	}
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.BorrowerID == borrowerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, ledger.ErrNotFound
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = ledger.NewID()
	t.CreatedAt = time.Now().UTC()
	s.transactions = append(s.transactions, t)
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, id string, upd ledger.TransactionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID != id {
			continue
		}
		if upd.Amount != nil {
			s.transactions[i].Amount = *upd.Amount
		}
		if upd.Date != nil {
			s.transactions[i].Date = *upd.Date
		}
		if upd.Time != nil {
			s.transactions[i].Time = *upd.Time
		}
		if upd.Notes != nil {
			s.transactions[i].Notes = *upd.Notes
		}
		return nil
	}
	return ledger.ErrNotFound
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *Store) Close() error { return nil }
