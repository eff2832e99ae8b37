package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		err error
	}{
		{"1", "1", nil},
		{"1.0", "1", nil},
		{"1.23", "1.23", nil},
		{"1,23", "1.23", nil}, // lone comma read as decimal comma
		{"0", "0", nil},
		{"0.01", "0.01", nil},
		{"1.005", "1.005", nil}, // full precision kept
		{" 2.50 ", "2.5", nil},
		{"1,000", "1000", nil},
		{"1,234,567.89", "1234567.89", nil},
		{"$1,000.00", "1000", nil},
		{"+5", "5", nil},
		{".5", "0.5", nil},
		{"-1", "", ErrNegativeAmount},
		{"abc", "", ErrInvalidAmount},
		{"1.2.3", "", ErrInvalidAmount},
		{"1,2,3", "", ErrInvalidAmount},
		{"12,50.3", "", ErrInvalidAmount},
		{"", "", ErrInvalidAmount},
		{".", "", ErrInvalidAmount},
	}
	sep := DefaultSeparators
	sep.Symbols = []string{"$", "USD"}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in, sep)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q expected %v, got %v (value %s)", tc.in, tc.err, err, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q unexpected error: %v", tc.in, err)
		}
		if !got.Equal(MustAmount(tc.out)) {
			t.Fatalf("%q expected %s, got %s", tc.in, tc.out, got)
		}
	}
}

func TestParseAmountCommaLocale(t *testing.T) {
	sep := Separators{Decimal: ",", Thousand: ".", Symbols: []string{"€", "EUR"}}
	cases := map[string]string{
		"1.234,56":  "1234.56",
		"12,5":      "12.5",
		"12.5":      "12.5",
		"€ 1.000":   "1000",
		"EUR 3,10":  "3.1",
		"1.234.567": "1234567",
	}
	for in, want := range cases {
		got, err := ParseAmount(in, sep)
		if err != nil {
			t.Fatalf("%q unexpected error: %v", in, err)
		}
		if !got.Equal(MustAmount(want)) {
			t.Fatalf("%q expected %s, got %s", in, want, got)
		}
	}
}

func TestAmountArithmetic(t *testing.T) {
	a := MustAmount("0.1")
	b := MustAmount("0.2")
	if !a.Add(b).Equal(MustAmount("0.3")) {
		t.Fatalf("0.1 + 0.2 should be exactly 0.3, got %s", a.Add(b))
	}
	net := MustAmount("400").Sub(MustAmount("1000"))
	if !net.IsNegative() || !net.Equal(AmountFromInt(-600)) {
		t.Fatalf("expected -600, got %s", net)
	}
	if err := net.Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected negative amount error, got %v", err)
	}
	if !AmountFromCents(1234).Equal(MustAmount("12.34")) {
		t.Fatalf("cents conversion mismatch")
	}
}
