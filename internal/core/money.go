// Package core provides the budgeting domain types.
//
// This file contains the Amount type and the parser that turns free text
// typed by a user into an Amount. Amounts keep full decimal precision;
// rounding only happens when they are formatted for display.
package core

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Amount is an exact decimal monetary amount in major units.
type Amount struct {
	value decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{}

// NewAmount wraps a decimal value.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{value: d}
}

// AmountFromInt returns an amount of v major units.
func AmountFromInt(v int64) Amount {
	return Amount{value: decimal.NewFromInt(v)}
}

// AmountFromCents returns an amount of c minor units with two decimals.
func AmountFromCents(c int64) Amount {
	return Amount{value: decimal.New(c, -2)}
}

// MustAmount parses a plain decimal string and panics on failure.
// Intended for constants and tests.
func MustAmount(s string) Amount {
	return Amount{value: decimal.RequireFromString(s)}
}

func (a Amount) Decimal() decimal.Decimal { return a.value }
func (a Amount) Add(b Amount) Amount      { return Amount{value: a.value.Add(b.value)} }
func (a Amount) Sub(b Amount) Amount      { return Amount{value: a.value.Sub(b.value)} }
func (a Amount) Equal(b Amount) bool      { return a.value.Equal(b.value) }
func (a Amount) IsZero() bool             { return a.value.IsZero() }
func (a Amount) IsNegative() bool         { return a.value.IsNegative() }
func (a Amount) Abs() Amount              { return Amount{value: a.value.Abs()} }

// String returns the exact decimal representation.
func (a Amount) String() string { return a.value.String() }

// Validate rejects negative amounts. Transaction values are magnitudes.
func (a Amount) Validate() error {
	if a.value.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return a.value.MarshalJSON()
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	return a.value.UnmarshalJSON(b)
}

// Separators describes how a locale writes numbers.
type Separators struct {
	Decimal  string   // e.g. "." or ","
	Thousand string   // grouping separator, may be empty
	Symbols  []string // currency symbols or codes to ignore, e.g. "$", "USD"
}

// DefaultSeparators accepts dot decimals and comma grouping.
var DefaultSeparators = Separators{Decimal: ".", Thousand: ","}

var groupingCache = map[string]*regexp.Regexp{}

func groupingPattern(thousand string) *regexp.Regexp {
	if re, ok := groupingCache[thousand]; ok {
		return re
	}
	return regexp.MustCompile(`^\d{1,3}(` + regexp.QuoteMeta(thousand) + `\d{3})+$`)
}

func init() {
	for _, sep := range []string{",", ".", "'", " "} {
		groupingCache[sep] = groupingPattern(sep)
	}
}

// ParseAmount parses user input into a non-negative Amount.
//
// It ignores currency symbols and whitespace, removes grouping separators
// when they form proper groups of three digits, and accepts the locale's
// decimal separator. A lone grouping separator that does not form groups
// is read as a decimal separator, so "12,5" parses as 12.5 in a dot locale.
//
// Examples with DefaultSeparators:
//
//	ParseAmount("1,234.50", sep) -> 1234.50
//	ParseAmount("$ 12,5", sep)   -> 12.5
//	ParseAmount("0", sep)        -> 0
//	ParseAmount("-3", sep)       -> ErrNegativeAmount
//	ParseAmount("abc", sep)      -> ErrInvalidAmount
func ParseAmount(s string, sep Separators) (Amount, error) {
	s = strings.TrimSpace(s)
	for _, sym := range sep.Symbols {
		if sym != "" {
			s = strings.ReplaceAll(s, sym, "")
		}
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) && sep.Thousand != " " {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "-") {
		return Zero, ErrNegativeAmount
	}
	s = strings.TrimPrefix(s, "+")

	dec := sep.Decimal
	if dec == "" {
		dec = "."
	}
	th := sep.Thousand
	if th == dec {
		th = ""
	}

	if th != "" && strings.Contains(s, th) {
		intPart := s
		if i := strings.Index(s, dec); i >= 0 {
			intPart = s[:i]
		}
		switch {
		case groupingPattern(th).MatchString(intPart):
			s = strings.ReplaceAll(s, th, "")
		case !strings.Contains(s, dec) && strings.Count(s, th) == 1:
			s = strings.Replace(s, th, dec, 1)
		default:
			return Zero, ErrInvalidAmount
		}
	}
	if strings.Count(s, dec) > 1 {
		return Zero, ErrInvalidAmount
	}
	s = strings.Replace(s, dec, ".", 1)

	digits := 0
	for _, r := range s {
		if r == '.' {
			continue
		}
		if r < '0' || r > '9' {
			return Zero, ErrInvalidAmount
		}
		digits++
	}
	if digits == 0 {
		return Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if strings.HasSuffix(s, ".") {
		s = strings.TrimSuffix(s, ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	return Amount{value: d}, nil
}
