// Package budget binds the ledger, the month navigator and the row editor
// into the command set of the budgeting screen.
package budget

import (
	"fmt"
	"log/slog"
	"time"

	"nickel/internal/calendar"
	"nickel/internal/core"
	"nickel/internal/ledger"
)

// Options configures a Session.
type Options struct {
	Locale string
	// ScopeToMonth filters lists and totals to the selected month. When
	// false every transaction is shown and summed regardless of month.
	ScopeToMonth bool
	Logger       *slog.Logger
}

// Session is the state behind one budgeting screen.
type Session struct {
	store  *ledger.Store
	nav    *calendar.Navigator
	editor *Editor
	locale string
	scoped bool
	logger *slog.Logger
}

func NewSession(store *ledger.Store, nav *calendar.Navigator, editor *Editor, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		store:  store,
		nav:    nav,
		editor: editor,
		locale: opts.Locale,
		scoped: opts.ScopeToMonth,
		logger: logger.With("component", "budget"),
	}
}

func (s *Session) Store() *ledger.Store           { return s.store }
func (s *Session) Navigator() *calendar.Navigator { return s.nav }
func (s *Session) Editor() *Editor                { return s.editor }

// AddIncome appends an income transaction tagged with the selected month.
// Empty name and amount give the placeholder name and a zero value.
func (s *Session) AddIncome(name, amount string) (core.Transaction, error) {
	return s.add(core.Income, name, amount)
}

// AddExpense appends an expense transaction tagged with the selected month.
func (s *Session) AddExpense(name, amount string) (core.Transaction, error) {
	return s.add(core.Expense, name, amount)
}

func (s *Session) add(kind core.Kind, name, amount string) (core.Transaction, error) {
	value := core.Zero
	if amount != "" {
		v, err := s.editor.ParseAmount(amount)
		if err != nil {
			return core.Transaction{}, err
		}
		value = v
	}

	month := s.nav.Month()
	var (
		tx  core.Transaction
		err error
	)
	if kind == core.Income {
		tx, err = s.store.AddIncome(name, value, month)
	} else {
		tx, err = s.store.AddExpense(name, value, month)
	}
	if err != nil {
		return core.Transaction{}, err
	}
	s.logger.Info("Transaction added",
		"id", tx.ID,
		"kind", tx.Kind,
		"month", tx.Month.String(),
		"value", tx.Value.String())
	return tx, nil
}

// Rename sets a transaction's name.
func (s *Session) Rename(id core.TransactionID, name string) (core.Transaction, error) {
	return s.Edit(id, &name, nil)
}

// SetValue parses text and stores it as the transaction's value. A parse
// failure leaves the stored value unchanged and is returned to the caller.
func (s *Session) SetValue(id core.TransactionID, text string) (core.Transaction, error) {
	return s.Edit(id, nil, &text)
}

// Edit applies a name and/or a textual amount to a transaction. The amount
// is parsed first so that a bad amount applies nothing at all.
func (s *Session) Edit(id core.TransactionID, name, amount *string) (core.Transaction, error) {
	var patch ledger.Patch
	if amount != nil {
		v, err := s.editor.ParseAmount(*amount)
		if err != nil {
			s.logger.Warn("Rejected transaction value",
				"id", id,
				"input", *amount,
				"error", err)
			return core.Transaction{}, err
		}
		patch.Value = &v
	}
	patch.Name = name
	if patch.Name == nil && patch.Value == nil {
		return s.store.Get(id)
	}
	tx, err := s.store.Edit(id, patch)
	if err != nil {
		return core.Transaction{}, err
	}
	s.logger.Debug("Transaction edited", "id", tx.ID, "name", tx.Name, "value", tx.Value.String())
	return tx, nil
}

// PreviousMonth moves the selection one month back.
func (s *Session) PreviousMonth() time.Time { return s.nav.Previous() }

// NextMonth moves the selection one month forward.
func (s *Session) NextMonth() time.Time { return s.nav.Next() }

// Row is a transaction prepared for display.
type Row struct {
	ID     string
	Name   string
	Value  core.Amount
	Amount string // signed, formatted with the currency
	Input  string // editable value
	Month  string
	Tone   string
}

// View is an immutable snapshot of the screen.
type View struct {
	Label        string
	Month        core.Month
	Currency     string
	Scoped       bool
	Income       []Row
	Expenses     []Row
	Totals       ledger.Totals
	IncomeTotal  string
	ExpenseTotal string
	NetIncome    string
	NetTone      string
}

// View builds a display snapshot from the current state.
func (s *Session) View() View {
	selected := s.nav.Selected()
	month := core.MonthOf(selected)

	var filters []ledger.Filter
	if s.scoped {
		filters = append(filters, ledger.InMonth(month))
	}
	snap := s.store.Snapshot(filters...)
	totals := snap.Totals

	v := View{
		Label:        calendar.Label(selected, s.locale),
		Month:        month,
		Currency:     s.editor.Currency(),
		Scoped:       s.scoped,
		Income:       s.rows(snap.Income),
		Expenses:     s.rows(snap.Expenses),
		Totals:       totals,
		IncomeTotal:  s.editor.FormatAmount(totals.Income),
		ExpenseTotal: s.editor.FormatAmount(totals.Expenses),
		NetIncome:    s.editor.FormatAmount(totals.Net),
		NetTone:      "income",
	}
	if totals.Net.IsNegative() {
		v.NetTone = "expense"
	}
	return v
}

func (s *Session) rows(txs []core.Transaction) []Row {
	rows := make([]Row, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, Row{
			ID:     tx.ID.String(),
			Name:   tx.Name,
			Value:  tx.Value,
			Amount: s.editor.Format(tx),
			Input:  s.editor.InputValue(tx.Value),
			Month:  calendar.Label(time.Date(tx.Month.Year, tx.Month.Month, 1, 0, 0, 0, 0, time.UTC), s.locale),
			Tone:   Tone(tx),
		})
	}
	return rows
}

// String is used in logs.
func (v View) String() string {
	return fmt.Sprintf("%s: %d income, %d expenses, net %s", v.Label, len(v.Income), len(v.Expenses), v.NetIncome)
}
