package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Lent     TransactionKind = "lent"
	Received TransactionKind = "received"
)

type (
	TransactionKind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Borrower struct {
		ID        string
		Name      string
		Phone     string
		Notes     string
		OwnerID   string
		CreatedAt time.Time
	}

	Transaction struct {
		ID         string
		BorrowerID string
		Kind       TransactionKind
		Amount     Money
		Date       Date
		Time       string // "HH:MM", empty when not supplied
		Notes      string
		OwnerID    string
		CreatedAt  time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidClockTime = errors.New("invalid time of day")
	ErrEmptyName        = errors.New("empty borrower name")
	ErrNameTooLong      = errors.New("name too long (max 200 characters)")
	ErrEmptyBorrowerRef = errors.New("empty borrower reference")
	ErrUnknownKind      = errors.New("unknown transaction kind")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date ("2024-01-05").
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String returns the ISO form used on the wire and in the CSV export.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (k TransactionKind) Validate() error {
	switch k {
	case Lent, Received:
		return nil
	default:
		return ErrUnknownKind
	}
}

// ValidateClockTime checks an optional "HH:MM" time of day. Empty is valid:
// the transaction simply has no recorded time.
func ValidateClockTime(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return ErrInvalidClockTime
	}
	return nil
}

func (b Borrower) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if len(b.Name) > 200 {
		return ErrNameTooLong
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.BorrowerID) == "" {
		return ErrEmptyBorrowerRef
	}
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := ValidateClockTime(t.Time); err != nil {
		return err
	}
	return nil
}

// OccurredAt combines date and time of day into a sortable instant.
// A transaction without a time sorts at the start of its date; the stored
// value is never touched.
func (t Transaction) OccurredAt() time.Time {
	when := t.Date.Time
	if t.Time != "" {
		if clock, err := time.Parse("15:04", t.Time); err == nil {
			when = when.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute)
		}
	}
	return when
}
