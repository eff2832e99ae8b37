package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMonthValidate(t *testing.T) {
	cases := []struct {
		m  Month
		ok bool
	}{
		{NewMonth(2024, 3), true},
		{NewMonth(2024, 12), true},
		{Month{}, false},
		{NewMonth(2024, 13), false},
		{NewMonth(10000, 1), false},
	}
	for i, tc := range cases {
		err := tc.m.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMonthTextRoundTrip(t *testing.T) {
	m := NewMonth(2024, 3)
	if m.String() != "2024-03" {
		t.Fatalf("unexpected month string %q", m.String())
	}
	b, err := json.Marshal(struct{ M Month }{m})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"M":"2024-03"}` {
		t.Fatalf("unexpected json %s", b)
	}
	var back struct{ M Month }
	if err := json.Unmarshal(b, &back); err != nil || back.M != m {
		t.Fatalf("unmarshal: %v %v", back.M, err)
	}
	if _, err := ParseMonth("2024-13"); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected invalid month, got %v", err)
	}
}

func TestTransactionIDs(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	a := NewTransactionID(now)
	b := NewTransactionID(now)
	if a == b {
		t.Fatalf("ids must be unique")
	}
	if a >= b {
		t.Fatalf("ids minted at the same instant must sort in creation order: %s >= %s", a, b)
	}
	parsed, err := ParseTransactionID(" " + a.String() + " ")
	if err != nil || parsed != a {
		t.Fatalf("parse id: %v %v", parsed, err)
	}
	if _, err := ParseTransactionID(""); !errors.Is(err, ErrEmptyID) {
		t.Fatalf("expected empty id error, got %v", err)
	}
	if _, err := ParseTransactionID("not-an-id"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID:    NewTransactionID(time.Now()),
		Name:  "Paycheck",
		Value: AmountFromInt(1000),
		Month: NewMonth(2024, 3),
		Kind:  Income,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !good.IsIncome() {
		t.Fatalf("income transaction should report IsIncome")
	}

	bad := []Transaction{
		{ID: "", Name: "a", Value: Zero, Month: NewMonth(2024, 3), Kind: Income},
		{ID: good.ID, Name: "a", Value: Zero, Month: NewMonth(2024, 3), Kind: "transfer"},
		{ID: good.ID, Name: "a", Value: Zero, Month: Month{}, Kind: Expense},
		{ID: good.ID, Name: strings.Repeat("x", 201), Value: Zero, Month: NewMonth(2024, 3), Kind: Expense},
		{ID: good.ID, Name: "a", Value: AmountFromInt(-1), Month: NewMonth(2024, 3), Kind: Expense},
	}
	for i, tx := range bad {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestKindPlaceholder(t *testing.T) {
	if Income.Placeholder() == Expense.Placeholder() {
		t.Fatalf("placeholders should differ per kind")
	}
	if Kind("other").Valid() {
		t.Fatalf("unknown kind should be invalid")
	}
}
