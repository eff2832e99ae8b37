package ledger

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"nickel/internal/core"
)

var march = core.NewMonth(2024, 3)

func fixedClock() func() time.Time {
	t := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestPaycheckAndRent(t *testing.T) {
	s := New(WithClock(fixedClock()))
	if _, err := s.AddIncome("Paycheck", core.AmountFromInt(1000), march); err != nil {
		t.Fatalf("add income: %v", err)
	}
	if _, err := s.AddExpense("Rent", core.AmountFromInt(400), march); err != nil {
		t.Fatalf("add expense: %v", err)
	}
	if got := s.IncomeTotal(); !got.Equal(core.AmountFromInt(1000)) {
		t.Fatalf("income total = %s, want 1000", got)
	}
	if got := s.ExpenseTotal(); !got.Equal(core.AmountFromInt(400)) {
		t.Fatalf("expense total = %s, want 400", got)
	}
	if got := s.NetIncome(); !got.Equal(core.AmountFromInt(600)) {
		t.Fatalf("net income = %s, want 600", got)
	}
}

func TestEmptyLedger(t *testing.T) {
	s := New()
	if !s.IncomeTotal().IsZero() || !s.ExpenseTotal().IsZero() || !s.NetIncome().IsZero() {
		t.Fatalf("empty ledger totals must be zero: %+v", s.Totals())
	}
	if len(s.Income()) != 0 || len(s.Expenses()) != 0 {
		t.Fatalf("empty ledger must list nothing")
	}
}

func TestDefaultIncome(t *testing.T) {
	s := New()
	tx, err := s.AddIncome("", core.Zero, march)
	if err != nil {
		t.Fatalf("add default income: %v", err)
	}
	if !tx.Value.IsZero() || tx.Name != core.Income.Placeholder() || !tx.IsIncome() {
		t.Fatalf("unexpected default transaction: %+v", tx)
	}
	if !s.IncomeTotal().IsZero() {
		t.Fatalf("income total should stay zero until edited")
	}
	v := core.MustAmount("12.5")
	if _, err := s.Edit(tx.ID, Patch{Value: &v}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !s.IncomeTotal().Equal(v) {
		t.Fatalf("income total = %s, want %s", s.IncomeTotal(), v)
	}
}

func TestSumIsOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	type op struct {
		income bool
		cents  int64
	}
	ops := make([]op, 200)
	var wantIn, wantOut int64
	for i := range ops {
		ops[i] = op{income: rng.Intn(2) == 0, cents: rng.Int63n(1_000_000)}
		if ops[i].income {
			wantIn += ops[i].cents
		} else {
			wantOut += ops[i].cents
		}
	}
	for round := 0; round < 5; round++ {
		rng.Shuffle(len(ops), func(i, j int) { ops[i], ops[j] = ops[j], ops[i] })
		s := New()
		for _, o := range ops {
			var err error
			if o.income {
				_, err = s.AddIncome("i", core.AmountFromCents(o.cents), march)
			} else {
				_, err = s.AddExpense("e", core.AmountFromCents(o.cents), march)
			}
			if err != nil {
				t.Fatalf("add: %v", err)
			}
		}
		totals := s.Totals()
		if !totals.Income.Equal(core.AmountFromCents(wantIn)) || !totals.Expenses.Equal(core.AmountFromCents(wantOut)) {
			t.Fatalf("round %d: totals %+v, want %d/%d cents", round, totals, wantIn, wantOut)
		}
		if !totals.Net.Equal(totals.Income.Sub(totals.Expenses)) || !s.NetIncome().Equal(totals.Net) {
			t.Fatalf("round %d: net mismatch", round)
		}
	}
}

func TestEditOnlyTouchesTarget(t *testing.T) {
	s := New()
	a, _ := s.AddIncome("A", core.AmountFromInt(10), march)
	b, _ := s.AddIncome("B", core.AmountFromInt(20), march)
	c, _ := s.AddExpense("C", core.AmountFromInt(5), march)

	name := "B renamed"
	v := core.AmountFromInt(25)
	got, err := s.Edit(b.ID, Patch{Name: &name, Value: &v})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got.Name != name || !got.Value.Equal(v) || got.Kind != core.Income || got.Month != b.Month {
		t.Fatalf("edit result wrong: %+v", got)
	}

	inc := s.Income()
	if len(inc) != 2 || inc[0] != a || inc[1].ID != b.ID || inc[1].Name != name {
		t.Fatalf("income collection changed unexpectedly: %+v", inc)
	}
	exp := s.Expenses()
	if len(exp) != 1 || exp[0] != c {
		t.Fatalf("expense collection changed unexpectedly: %+v", exp)
	}

	// name-only patch keeps the value
	other := "C2"
	got, _ = s.Edit(c.ID, Patch{Name: &other})
	if !got.Value.Equal(c.Value) || got.Kind != core.Expense {
		t.Fatalf("name-only patch changed value or kind: %+v", got)
	}
}

func TestEditErrors(t *testing.T) {
	s := New()
	tx, _ := s.AddExpense("Rent", core.AmountFromInt(400), march)

	v := core.AmountFromInt(1)
	if _, err := s.Edit(core.NewTransactionID(time.Now()), Patch{Value: &v}); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	neg := core.AmountFromInt(-1)
	name := "changed"
	if _, err := s.Edit(tx.ID, Patch{Name: &name, Value: &neg}); !errors.Is(err, core.ErrNegativeAmount) {
		t.Fatalf("expected negative amount error, got %v", err)
	}
	stored, err := s.Get(tx.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored != tx {
		t.Fatalf("failed edit must not apply partially: %+v", stored)
	}

	if _, err := s.AddIncome("x", core.AmountFromInt(-5), march); !errors.Is(err, core.ErrNegativeAmount) {
		t.Fatalf("expected negative amount on add, got %v", err)
	}
	if _, err := s.AddIncome("x", core.Zero, core.Month{}); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected invalid month on add, got %v", err)
	}
}

func TestMonthFilter(t *testing.T) {
	s := New()
	april := core.NewMonth(2024, 4)
	_, _ = s.AddIncome("March pay", core.AmountFromInt(100), march)
	_, _ = s.AddIncome("April pay", core.AmountFromInt(300), april)
	_, _ = s.AddExpense("April rent", core.AmountFromInt(50), april)

	all := s.Totals()
	if !all.Income.Equal(core.AmountFromInt(400)) {
		t.Fatalf("unfiltered totals must include every month: %+v", all)
	}
	scoped := s.Totals(InMonth(april))
	if !scoped.Income.Equal(core.AmountFromInt(300)) || !scoped.Net.Equal(core.AmountFromInt(250)) {
		t.Fatalf("april totals wrong: %+v", scoped)
	}
	if got := s.Income(InMonth(march)); len(got) != 1 || got[0].Name != "March pay" {
		t.Fatalf("march income wrong: %+v", got)
	}
}

func TestSubscribe(t *testing.T) {
	s := New()
	var events []Event
	unsubscribe := s.Subscribe(func(e Event) { events = append(events, e) })

	tx, _ := s.AddIncome("Paycheck", core.AmountFromInt(1000), march)
	name := "Salary"
	_, _ = s.Edit(tx.ID, Patch{Name: &name})

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventAdded || events[0].Transaction.ID != tx.ID {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	if events[1].Type != EventEdited || events[1].Transaction.Name != "Salary" {
		t.Fatalf("unexpected second event %+v", events[1])
	}

	unsubscribe()
	unsubscribe()
	_, _ = s.AddExpense("Rent", core.AmountFromInt(400), march)
	if len(events) != 2 {
		t.Fatalf("unsubscribed listener still notified")
	}
}

func TestListenerMayReadStore(t *testing.T) {
	s := New()
	var seen core.Amount
	s.Subscribe(func(Event) { seen = s.IncomeTotal() })
	_, _ = s.AddIncome("Paycheck", core.AmountFromInt(7), march)
	if !seen.Equal(core.AmountFromInt(7)) {
		t.Fatalf("listener should observe the applied mutation, saw %s", seen)
	}
}

func TestConcurrentWriters(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := s.AddExpense("e", core.AmountFromInt(2), march)
			if err != nil {
				t.Errorf("add: %v", err)
				return
			}
			v := core.AmountFromInt(1)
			if _, err := s.Edit(tx.ID, Patch{Value: &v}); err != nil {
				t.Errorf("edit: %v", err)
			}
			_ = s.Totals()
		}()
	}
	wg.Wait()
	if got := s.ExpenseTotal(); !got.Equal(core.AmountFromInt(50)) {
		t.Fatalf("expense total = %s, want 50", got)
	}
}

func TestSnapshotRowsMatchTotals(t *testing.T) {
	s := New()
	_, _ = s.AddIncome("pay", core.AmountFromInt(1000), march)
	_, _ = s.AddExpense("rent", core.AmountFromInt(400), core.NewMonth(2024, 4))

	scoped := s.Snapshot(InMonth(march))
	if len(scoped.Income) != 1 || len(scoped.Expenses) != 0 || !scoped.Totals.Net.Equal(core.AmountFromInt(1000)) {
		t.Fatalf("march snapshot wrong: %+v", scoped)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				_, _ = s.AddIncome("i", core.AmountFromInt(3), march)
				_, _ = s.AddExpense("e", core.AmountFromInt(2), march)
			}
		}
	}()
	for i := 0; i < 200; i++ {
		snap := s.Snapshot()
		in, out := core.Zero, core.Zero
		for _, tx := range snap.Income {
			in = in.Add(tx.Value)
		}
		for _, tx := range snap.Expenses {
			out = out.Add(tx.Value)
		}
		if !in.Equal(snap.Totals.Income) || !out.Equal(snap.Totals.Expenses) || !in.Sub(out).Equal(snap.Totals.Net) {
			close(stop)
			wg.Wait()
			t.Fatalf("snapshot rows do not add up: income %s vs %s, expenses %s vs %s", in, snap.Totals.Income, out, snap.Totals.Expenses)
		}
	}
	close(stop)
	wg.Wait()
}
