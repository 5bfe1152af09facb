package services

import (
	"context"
	"errors"
	"testing"

	"cashtrack/internal/amqp"
	"cashtrack/internal/core"
	"cashtrack/internal/ledger"
	"cashtrack/internal/storage"
)

type fakeSource struct {
	transactions map[string]core.Transaction
	borrowers    map[string]core.Borrower
	pending      []storage.PendingBackup
	backedUp     []string
	errored      []string
}

func (f *fakeSource) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	t, ok := f.transactions[id]
	if !ok {
		return core.Transaction{}, ledger.ErrNotFound
	}
	return t, nil
}

func (f *fakeSource) GetBorrower(_ context.Context, id string) (core.Borrower, error) {
	b, ok := f.borrowers[id]
	if !ok {
		return core.Borrower{}, ledger.ErrNotFound
	}
	return b, nil
}

func (f *fakeSource) GetPendingBackups(_ context.Context, limit int) ([]storage.PendingBackup, error) {
	if limit < len(f.pending) {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeSource) MarkBackedUp(_ context.Context, id string) error {
	f.backedUp = append(f.backedUp, id)
	return nil
}

func (f *fakeSource) MarkBackupError(_ context.Context, id string) error {
	f.errored = append(f.errored, id)
	return nil
}

type fakeAppender struct {
	rows []string
	err  error
}

func (f *fakeAppender) AppendTransaction(_ context.Context, borrowerName string, t core.Transaction, _ int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.rows = append(f.rows, borrowerName+"/"+t.ID)
	return "Sheet1!A2:I2", nil
}

func newFixture() (*fakeSource, *fakeAppender) {
	src := &fakeSource{
		transactions: map[string]core.Transaction{
			"t1": {ID: "t1", BorrowerID: "b1", Kind: core.Lent, Amount: core.Money{Cents: 1000}, Date: core.NewDate(2024, 1, 1)},
		},
		borrowers: map[string]core.Borrower{
			"b1": {ID: "b1", Name: "Alice"},
		},
	}
	return src, &fakeAppender{}
}

func TestHandleBackupMessage(t *testing.T) {
	src, app := newFixture()
	p := NewBackupProcessor(src, app, 10)

	msg := &amqp.BackupMessage{ID: "t1", Version: 1}
	if err := p.HandleBackupMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleBackupMessage: %v", err)
	}
	if len(app.rows) != 1 || app.rows[0] != "Alice/t1" {
		t.Errorf("rows = %v", app.rows)
	}
	if len(src.backedUp) != 1 || src.backedUp[0] != "t1" {
		t.Errorf("backedUp = %v", src.backedUp)
	}
}

func TestHandleBackupMessageDeletedTransaction(t *testing.T) {
	src, app := newFixture()
	p := NewBackupProcessor(src, app, 10)

	// A row deleted before delivery is skipped, not redelivered forever.
	msg := &amqp.BackupMessage{ID: "gone", Version: 1}
	if err := p.HandleBackupMessage(context.Background(), msg); err != nil {
		t.Fatalf("expected nil for a deleted transaction, got %v", err)
	}
	if len(app.rows) != 0 {
		t.Errorf("nothing should be appended, got %v", app.rows)
	}
}

func TestHandleBackupMessageMissingBorrower(t *testing.T) {
	src, app := newFixture()
	delete(src.borrowers, "b1")
	p := NewBackupProcessor(src, app, 10)

	if err := p.HandleBackupMessage(context.Background(), &amqp.BackupMessage{ID: "t1", Version: 1}); err != nil {
		t.Fatalf("HandleBackupMessage: %v", err)
	}
	if len(app.rows) != 1 || app.rows[0] != "Unknown/t1" {
		t.Errorf("rows = %v, want [Unknown/t1]", app.rows)
	}
}

func TestHandleBackupMessageAppendFailure(t *testing.T) {
	src, app := newFixture()
	app.err = errors.New("sheets unavailable")
	p := NewBackupProcessor(src, app, 10)

	if err := p.HandleBackupMessage(context.Background(), &amqp.BackupMessage{ID: "t1", Version: 1}); err == nil {
		t.Fatal("expected error so the message gets redelivered")
	}
	if len(src.errored) != 1 || src.errored[0] != "t1" {
		t.Errorf("errored = %v, want [t1]", src.errored)
	}
	if len(src.backedUp) != 0 {
		t.Errorf("row must not be marked done on failure")
	}
}

func TestProcessPending(t *testing.T) {
	src, app := newFixture()
	src.transactions["t2"] = core.Transaction{ID: "t2", BorrowerID: "b1", Kind: core.Received, Amount: core.Money{Cents: 500}, Date: core.NewDate(2024, 1, 2)}
	src.pending = []storage.PendingBackup{{ID: "t1", Version: 1}, {ID: "t2", Version: 2}}
	p := NewBackupProcessor(src, app, 10)

	if err := p.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if len(src.backedUp) != 2 {
		t.Errorf("backedUp = %v, want both rows", src.backedUp)
	}
}

func TestProcessPendingEmpty(t *testing.T) {
	src, app := newFixture()
	src.pending = nil
	p := NewBackupProcessor(src, app, 10)

	if err := p.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending on empty set: %v", err)
	}
	if len(app.rows) != 0 {
		t.Errorf("nothing should be appended")
	}
}

func TestProcessPendingReportsFailures(t *testing.T) {
	src, app := newFixture()
	src.pending = []storage.PendingBackup{{ID: "t1", Version: 1}}
	app.err = errors.New("sheets unavailable")
	p := NewBackupProcessor(src, app, 10)

	if err := p.ProcessPending(context.Background()); err == nil {
		t.Fatal("expected an aggregate error")
	}
}
