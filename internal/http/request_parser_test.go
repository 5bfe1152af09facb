package http

import (
	"errors"
	"testing"

	"cashtrack/internal/core"
)

func TestTransactionFromRequest(t *testing.T) {
	req := transactionRequest{
		BorrowerID: " b1 ",
		Kind:       "lent",
		Amount:     "12,34",
		Date:       "2024-03-01",
		Time:       " 09:15 ",
		Notes:      "lunch\x00money",
	}
	tx, err := transactionFromRequest(req)
	if err != nil {
		t.Fatalf("transactionFromRequest: %v", err)
	}
	if tx.BorrowerID != "b1" {
		t.Errorf("BorrowerID = %q", tx.BorrowerID)
	}
	if tx.Amount.Cents != 1234 {
		t.Errorf("Cents = %d, want 1234", tx.Amount.Cents)
	}
	if tx.Date.String() != "2024-03-01" {
		t.Errorf("Date = %q", tx.Date.String())
	}
	if tx.Time != "09:15" {
		t.Errorf("Time = %q", tx.Time)
	}
	if tx.Notes != "lunchmoney" {
		t.Errorf("Notes = %q, control characters must be stripped", tx.Notes)
	}
}

func TestTransactionFromRequestErrors(t *testing.T) {
	tests := []struct {
		name string
		req  transactionRequest
		want error
	}{
		{"bad amount", transactionRequest{Amount: "abc", Date: "2024-01-01"}, core.ErrInvalidAmount},
		{"bad date", transactionRequest{Amount: "10", Date: "yesterday"}, core.ErrInvalidDate},
		{"bad time", transactionRequest{Amount: "10", Date: "2024-01-01", Time: "noon"}, core.ErrInvalidClockTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := transactionFromRequest(tt.req); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPatchFromRequestLeavesAbsentFieldsNil(t *testing.T) {
	amount := "5"
	upd, err := patchFromRequest(transactionPatch{Amount: &amount})
	if err != nil {
		t.Fatalf("patchFromRequest: %v", err)
	}
	if upd.Amount == nil || upd.Amount.Cents != 500 {
		t.Errorf("Amount = %+v", upd.Amount)
	}
	if upd.Date != nil || upd.Time != nil || upd.Notes != nil {
		t.Errorf("absent fields must stay nil: %+v", upd)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  hello  ", "hello"},
		{"a\x00b\x01c", "abc"},
		{"keep\ttabs", "keep\ttabs"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
