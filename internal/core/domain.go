package core

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind is the category of a transaction. It decides which collection
	// the transaction lives in and never changes after creation.
	Kind string

	// TransactionID identifies a transaction for its whole lifetime.
	TransactionID string

	// Month is a calendar month of a given year.
	Month struct {
		Year  int
		Month time.Month
	}

	Transaction struct {
		ID        TransactionID
		Name      string
		Value     Amount // always non-negative; the sign comes from Kind
		Month     Month  // month selected when the transaction was created
		Kind      Kind
		CreatedAt time.Time
	}
)

var (
	ErrInvalidKind     = errors.New("invalid transaction kind")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrNameTooLong     = errors.New("name too long (max 200 characters)")
	ErrEmptyID         = errors.New("empty transaction id")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrUnknownCurrency = errors.New("unknown currency")
)

const maxNameLength = 200

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// Placeholder returns the editable name given to transactions created
// without one.
func (k Kind) Placeholder() string {
	if k == Income {
		return "New income"
	}
	return "New expense"
}

func (k Kind) String() string { return string(k) }

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewTransactionID returns a lexically sortable id stamped with t.
func NewTransactionID(t time.Time) TransactionID {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return TransactionID(ulid.MustNew(ulid.Timestamp(t), entropy).String())
}

// ParseTransactionID validates the textual form of an id.
func ParseTransactionID(s string) (TransactionID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyID
	}
	id, err := ulid.ParseStrict(s)
	if err != nil {
		return "", fmt.Errorf("parse transaction id %q: %w", s, err)
	}
	return TransactionID(id.String()), nil
}

func (id TransactionID) String() string { return string(id) }

// MonthOf returns the month t falls in.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// NewMonth builds a Month from numeric year and month.
func NewMonth(year, month int) Month {
	return Month{Year: year, Month: time.Month(month)}
}

func (m Month) Validate() error {
	if m.Year < 1 || m.Year > 9999 {
		return ErrInvalidMonth
	}
	if m.Month < time.January || m.Month > time.December {
		return ErrInvalidMonth
	}
	return nil
}

// IsZero reports whether m is the zero Month.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// String returns the month as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// ParseMonth parses the YYYY-MM form produced by String.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return MonthOf(t), nil
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// IsIncome reports whether the transaction belongs to the income collection.
func (t Transaction) IsIncome() bool {
	return t.Kind == Income
}

func (t Transaction) Validate() error {
	if t.ID == "" {
		return ErrEmptyID
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := t.Month.Validate(); err != nil {
		return err
	}
	if len(t.Name) > maxNameLength {
		return ErrNameTooLong
	}
	return t.Value.Validate()
}

// ValidateName checks a candidate transaction name.
func ValidateName(name string) error {
	if len(name) > maxNameLength {
		return ErrNameTooLong
	}
	return nil
}
