// Package ledger holds the income and expense collections of a session.
//
// The Store is the single owner of both collections and the only place
// where they change. Sums are recomputed from current state on every call.
package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"nickel/internal/core"
)

// ErrTransactionNotFound is returned by edits and lookups for an unknown id.
var ErrTransactionNotFound = errors.New("transaction not found")

const (
	EventAdded  EventType = "transaction.added"
	EventEdited EventType = "transaction.edited"
)

type (
	EventType string

	// Event describes a change that has already been applied to the store.
	Event struct {
		Type        EventType
		Transaction core.Transaction
		At          time.Time
	}

	// Listener is notified after each successful mutation, outside the
	// store lock, in subscription order.
	Listener func(Event)

	// Patch selects the fields an edit changes. Nil fields are left alone.
	Patch struct {
		Name  *string
		Value *core.Amount
	}

	// Filter restricts which transactions are listed or summed.
	Filter func(core.Transaction) bool

	Totals struct {
		Income   core.Amount
		Expenses core.Amount
		Net      core.Amount
	}
)

// InMonth keeps only transactions created under m.
func InMonth(m core.Month) Filter {
	return func(tx core.Transaction) bool { return tx.Month == m }
}

type location struct {
	kind core.Kind
	pos  int
}

// Store is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	income   []core.Transaction
	expenses []core.Transaction
	index    map[core.TransactionID]location

	lmu         sync.Mutex
	listeners   map[int]Listener
	listenerSeq int
	listenOrder []int

	now   func() time.Time
	newID func(time.Time) core.TransactionID
}

type Option func(*Store)

// WithClock overrides the clock used for creation and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides transaction id generation.
func WithIDGenerator(gen func(time.Time) core.TransactionID) Option {
	return func(s *Store) { s.newID = gen }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		index:     make(map[core.TransactionID]location),
		listeners: make(map[int]Listener),
		now:       time.Now,
		newID:     core.NewTransactionID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddIncome appends a new income transaction. An empty name gets the
// income placeholder; a zero value is allowed.
func (s *Store) AddIncome(name string, value core.Amount, month core.Month) (core.Transaction, error) {
	return s.add(core.Income, name, value, month)
}

// AddExpense appends a new expense transaction.
func (s *Store) AddExpense(name string, value core.Amount, month core.Month) (core.Transaction, error) {
	return s.add(core.Expense, name, value, month)
}

func (s *Store) add(kind core.Kind, name string, value core.Amount, month core.Month) (core.Transaction, error) {
	if name == "" {
		name = kind.Placeholder()
	}
	now := s.now()
	tx := core.Transaction{
		ID:        s.newID(now),
		Name:      name,
		Value:     value,
		Month:     month,
		Kind:      kind,
		CreatedAt: now,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("add %s: %w", kind, err)
	}

	s.mu.Lock()
	if _, dup := s.index[tx.ID]; dup {
		s.mu.Unlock()
		return core.Transaction{}, fmt.Errorf("add %s: duplicate id %s", kind, tx.ID)
	}
	if kind == core.Income {
		s.index[tx.ID] = location{kind: kind, pos: len(s.income)}
		s.income = append(s.income, tx)
	} else {
		s.index[tx.ID] = location{kind: kind, pos: len(s.expenses)}
		s.expenses = append(s.expenses, tx)
	}
	s.mu.Unlock()

	s.notify(Event{Type: EventAdded, Transaction: tx, At: now})
	return tx, nil
}

// Edit applies p to the transaction with the given id in whichever
// collection holds it. Either all provided fields are applied or none.
func (s *Store) Edit(id core.TransactionID, p Patch) (core.Transaction, error) {
	if p.Name != nil {
		if err := core.ValidateName(*p.Name); err != nil {
			return core.Transaction{}, fmt.Errorf("edit %s: %w", id, err)
		}
	}
	if p.Value != nil {
		if err := p.Value.Validate(); err != nil {
			return core.Transaction{}, fmt.Errorf("edit %s: %w", id, err)
		}
	}

	s.mu.Lock()
	loc, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return core.Transaction{}, fmt.Errorf("edit %s: %w", id, ErrTransactionNotFound)
	}
	tx := s.slot(loc)
	if p.Name != nil {
		tx.Name = *p.Name
	}
	if p.Value != nil {
		tx.Value = *p.Value
	}
	updated := *tx
	s.mu.Unlock()

	s.notify(Event{Type: EventEdited, Transaction: updated, At: s.now()})
	return updated, nil
}

// slot returns a pointer into the owning collection. Callers hold s.mu.
func (s *Store) slot(loc location) *core.Transaction {
	if loc.kind == core.Income {
		return &s.income[loc.pos]
	}
	return &s.expenses[loc.pos]
}

// Get returns a copy of the transaction with the given id.
func (s *Store) Get(id core.TransactionID) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.index[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("get %s: %w", id, ErrTransactionNotFound)
	}
	return *s.slot(loc), nil
}

// Income returns the income transactions in insertion order.
func (s *Store) Income(filters ...Filter) []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.income, filters)
}

// Expenses returns the expense transactions in insertion order.
func (s *Store) Expenses(filters ...Filter) []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.expenses, filters)
}

// Len returns the number of income and expense transactions.
func (s *Store) Len() (income, expenses int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.income), len(s.expenses)
}

// IncomeTotal sums all income values. It is zero for an empty ledger.
func (s *Store) IncomeTotal() core.Amount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sum(s.income, nil)
}

// ExpenseTotal sums all expense values.
func (s *Store) ExpenseTotal() core.Amount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sum(s.expenses, nil)
}

// NetIncome is IncomeTotal minus ExpenseTotal, computed from one snapshot.
func (s *Store) NetIncome() core.Amount {
	return s.Totals().Net
}

// Totals computes the three sums under a single read lock.
func (s *Store) Totals(filters ...Filter) Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in := sum(s.income, filters)
	out := sum(s.expenses, filters)
	return Totals{Income: in, Expenses: out, Net: in.Sub(out)}
}

// Snapshot is a consistent read of both collections and their sums.
type Snapshot struct {
	Income   []core.Transaction
	Expenses []core.Transaction
	Totals   Totals
}

// Snapshot reads the filtered lists and their totals under one read lock,
// so the rows always add up to the totals.
func (s *Store) Snapshot(filters ...Filter) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in := sum(s.income, filters)
	out := sum(s.expenses, filters)
	return Snapshot{
		Income:   collect(s.income, filters),
		Expenses: collect(s.expenses, filters),
		Totals:   Totals{Income: in, Expenses: out, Net: in.Sub(out)},
	}
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listenerSeq++
	id := s.listenerSeq
	s.listeners[id] = fn
	s.listenOrder = append(s.listenOrder, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.lmu.Lock()
			defer s.lmu.Unlock()
			delete(s.listeners, id)
			for i, v := range s.listenOrder {
				if v == id {
					s.listenOrder = append(s.listenOrder[:i], s.listenOrder[i+1:]...)
					break
				}
			}
		})
	}
}

func (s *Store) notify(e Event) {
	s.lmu.Lock()
	fns := make([]Listener, 0, len(s.listenOrder))
	for _, id := range s.listenOrder {
		fns = append(fns, s.listeners[id])
	}
	s.lmu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

func match(tx core.Transaction, filters []Filter) bool {
	for _, f := range filters {
		if f != nil && !f(tx) {
			return false
		}
	}
	return true
}

func collect(in []core.Transaction, filters []Filter) []core.Transaction {
	out := make([]core.Transaction, 0, len(in))
	for _, tx := range in {
		if match(tx, filters) {
			out = append(out, tx)
		}
	}
	return out
}

func sum(in []core.Transaction, filters []Filter) core.Amount {
	total := core.Zero
	for _, tx := range in {
		if match(tx, filters) {
			total = total.Add(tx.Value)
		}
	}
	return total
}
