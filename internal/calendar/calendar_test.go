package calendar

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/goodsign/monday"

	"nickel/internal/core"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func TestAddMonths(t *testing.T) {
	cases := []struct {
		name  string
		from  time.Time
		delta int
		want  time.Time
	}{
		{"next keeps day", date(2024, time.March, 15), 1, date(2024, time.April, 15)},
		{"previous keeps day", date(2024, time.March, 15), -1, date(2024, time.February, 15)},
		{"clamps to leap february", date(2024, time.January, 31), 1, date(2024, time.February, 29)},
		{"clamps to february", date(2023, time.January, 31), 1, date(2023, time.February, 28)},
		{"clamps to 30 day month", date(2024, time.March, 31), 1, date(2024, time.April, 30)},
		{"year rollover forward", date(2024, time.December, 10), 1, date(2025, time.January, 10)},
		{"year rollover backward", date(2024, time.January, 10), -1, date(2023, time.December, 10)},
		{"many months back", date(2024, time.March, 1), -27, date(2021, time.December, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AddMonths(tc.from, tc.delta)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("AddMonths(%s, %d) = %s, want %s", tc.from, tc.delta, got, tc.want)
			}
		})
	}
}

func TestAddMonthsOverflow(t *testing.T) {
	if _, err := AddMonths(date(9999, time.December, 1), 1); !errors.Is(err, ErrCalendarOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if _, err := AddMonths(date(1, time.January, 1), -1); !errors.Is(err, ErrCalendarOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestNavigatorRoundTrip(t *testing.T) {
	// every day of a leap year: next then previous lands in the start month
	start := date(2024, time.January, 1)
	for d := start; d.Year() == 2024; d = d.AddDate(0, 0, 1) {
		n := NewNavigator(func() time.Time { return d }, nil)
		n.Next()
		back := n.Previous()
		if core.MonthOf(back) != core.MonthOf(d) {
			t.Fatalf("round trip from %s ended in %s", d.Format("2006-01-02"), back.Format("2006-01-02"))
		}
	}

	n := NewNavigator(func() time.Time { return date(2024, time.March, 15) }, nil)
	if got := n.Next(); !got.Equal(date(2024, time.April, 15)) {
		t.Fatalf("next: %s", got)
	}
	if got := n.Previous(); !got.Equal(date(2024, time.March, 15)) {
		t.Fatalf("previous: %s", got)
	}
}

func TestNavigatorFallsBackToNow(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	calls := 0
	clock := func() time.Time {
		calls++
		if calls == 1 {
			return date(9999, time.December, 20)
		}
		return date(2024, time.May, 2)
	}
	n := NewNavigator(clock, logger)
	got := n.Next()
	if !got.Equal(date(2024, time.May, 2)) {
		t.Fatalf("expected reset to now, got %s", got)
	}
	if n.Month() != core.NewMonth(2024, 5) {
		t.Fatalf("selected month not reset: %v", n.Month())
	}
	if !strings.Contains(buf.String(), "Month navigation failed") {
		t.Fatalf("fallback should be logged, log was %q", buf.String())
	}
}

func TestLabel(t *testing.T) {
	d := date(2024, time.March, 15)
	cases := map[string]string{
		"":      "March 2024",
		"en":    "March 2024",
		"en-US": "March 2024",
		"it":    "marzo 2024",
		"it_IT": "marzo 2024",
		"de":    "März 2024",
		"fr-FR": "mars 2024",
		"es":    "marzo 2024",
		"xx":    "March 2024",
	}
	for locale, want := range cases {
		if got := Label(d, locale); got != want {
			t.Fatalf("Label(%q) = %q, want %q", locale, got, want)
		}
	}
}

func TestResolveLocale(t *testing.T) {
	cases := map[string]monday.Locale{
		"":      monday.LocaleEnUS,
		"en":    monday.LocaleEnUS,
		"en-GB": monday.LocaleEnGB,
		"it":    monday.LocaleItIT,
		"de-de": monday.LocaleDeDE,
		"pt_BR": monday.LocalePtBR,
		"en_XX": monday.LocaleEnUS,
		"xx":    monday.LocaleEnUS,
	}
	for in, want := range cases {
		if got := ResolveLocale(in); got != want {
			t.Fatalf("ResolveLocale(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSupportedLocales(t *testing.T) {
	locales := SupportedLocales()
	if len(locales) < 5 {
		t.Fatalf("expected many locales, got %v", locales)
	}
	for i := 1; i < len(locales); i++ {
		if locales[i-1] > locales[i] {
			t.Fatalf("locales not sorted at %d: %v", i, locales)
		}
	}
}
