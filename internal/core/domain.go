package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxDescriptionLength is the longest accepted description, in characters.
const MaxDescriptionLength = 500

// TimestampLayout is the format used for the Date of new transactions.
const TimestampLayout = "2006-01-02 15:04:05"

// dateLayouts are tried in order when reading historical dates.
var dateLayouts = []string{
	TimestampLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

type (
	// Transaction is one line of the journal.
	Transaction struct {
		Date        string // TimestampLayout; empty on older records
		Description string
		Debit       decimal.Decimal
		Credit      decimal.Decimal
	}

	// Draft holds the values a user is currently typing in the entry form.
	Draft struct {
		Description string
		Debit       decimal.Decimal
		Credit      decimal.Decimal
	}
)

var (
	ErrValidation = errors.New("validation failed")

	ErrEmptyDescription = validationError("empty description")
	ErrDescriptionLong  = validationError("description too long")
	ErrNoAmount         = validationError("debit or credit must be positive")
	ErrNegativeAmount   = validationError("negative amount")
	ErrInvalidAmount    = validationError("invalid amount")
	ErrAmountOutOfRange = validationError("amount out of range")
	ErrDuplicate        = validationError("duplicate entry")
)

type fieldError struct{ msg string }

func validationError(msg string) error { return &fieldError{msg: msg} }

func (e *fieldError) Error() string { return e.msg }

// Unwrap lets callers test any of the above with errors.Is(err, ErrValidation).
func (e *fieldError) Unwrap() error { return ErrValidation }

// Time parses Date. ok is false when the date is missing or unparseable.
func (t Transaction) Time(loc *time.Location) (time.Time, bool) {
	s := strings.TrimSpace(t.Date)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dateLayouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// SameEntry reports whether both records carry the same description and amounts.
// Dates are ignored.
func (t Transaction) SameEntry(d Draft) bool {
	return t.Description == d.Description &&
		t.Debit.Equal(d.Debit) &&
		t.Credit.Equal(d.Credit)
}

// Normalize trims the description.
func (d Draft) Normalize() Draft {
	d.Description = strings.TrimSpace(d.Description)
	return d
}

func (d Draft) Validate() error {
	if d.Debit.IsNegative() || d.Credit.IsNegative() {
		return ErrNegativeAmount
	}
	if strings.TrimSpace(d.Description) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(d.Description) > MaxDescriptionLength {
		return ErrDescriptionLong
	}
	if !d.Debit.IsPositive() && !d.Credit.IsPositive() {
		return ErrNoAmount
	}
	return nil
}

// Transaction stamps the draft with the given creation time.
func (d Draft) Transaction(now time.Time) Transaction {
	return Transaction{
		Date:        now.Format(TimestampLayout),
		Description: d.Description,
		Debit:       d.Debit,
		Credit:      d.Credit,
	}
}
