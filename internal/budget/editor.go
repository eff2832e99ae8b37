package budget

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"

	"nickel/internal/core"
)

// Editor translates between what a user types in a transaction row and the
// stored amount, using the separators and symbol of one currency.
type Editor struct {
	currency money.Currency
	seps     core.Separators
}

// NewEditor returns an editor for an ISO 4217 currency code such as "USD".
func NewEditor(code string) (*Editor, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	c := money.GetCurrency(code)
	if c == nil {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownCurrency, code)
	}
	return &Editor{
		currency: *c,
		seps: core.Separators{
			Decimal:  c.Decimal,
			Thousand: c.Thousand,
			Symbols:  []string{c.Grapheme, c.Code},
		},
	}, nil
}

// Currency returns the ISO code the editor formats with.
func (e *Editor) Currency() string { return e.currency.Code }

// ParseAmount parses free text typed into a value field. On failure the
// returned error wraps core.ErrInvalidAmount or core.ErrNegativeAmount.
func (e *Editor) ParseAmount(text string) (core.Amount, error) {
	a, err := core.ParseAmount(text, e.seps)
	if err != nil {
		return core.Zero, fmt.Errorf("parse %q: %w", text, err)
	}
	return a, nil
}

// FormatAmount renders a rounded half away from zero to the currency's
// minor unit, laid out with the currency's template. Negative amounts keep
// their sign. Any magnitude is formatted exactly.
func (e *Editor) FormatAmount(a core.Amount) string {
	fraction := int32(e.currency.Fraction)
	rounded := a.Decimal().Round(fraction)

	whole, frac, _ := strings.Cut(rounded.Abs().StringFixed(fraction), ".")
	if e.currency.Thousand != "" {
		for i := len(whole) - 3; i > 0; i -= 3 {
			whole = whole[:i] + e.currency.Thousand + whole[i:]
		}
	}
	if frac != "" {
		whole += e.currency.Decimal + frac
	}

	s := strings.Replace(e.currency.Template, "1", whole, 1)
	s = strings.Replace(s, "$", e.currency.Grapheme, 1)
	if rounded.IsNegative() {
		s = "-" + s
	}
	return s
}

// Format renders a transaction value with the sign implied by its kind.
func (e *Editor) Format(tx core.Transaction) string {
	if tx.Value.IsZero() {
		return e.FormatAmount(tx.Value)
	}
	if tx.IsIncome() {
		return "+" + e.FormatAmount(tx.Value)
	}
	return "-" + e.FormatAmount(tx.Value)
}

// InputValue renders the stored value for an input field, without the
// currency symbol or grouping, at full precision.
func (e *Editor) InputValue(a core.Amount) string {
	s := a.Decimal().StringFixed(int32(e.currency.Fraction))
	if exact := a.String(); len(exact) > len(s) {
		s = exact
	}
	if e.seps.Decimal != "" && e.seps.Decimal != "." {
		s = strings.Replace(s, ".", e.seps.Decimal, 1)
	}
	return s
}

// Tone names the color class a transaction is displayed with.
func Tone(tx core.Transaction) string {
	if tx.IsIncome() {
		return "income"
	}
	return "expense"
}
