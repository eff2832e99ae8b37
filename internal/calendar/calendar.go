// Package calendar owns the selected month of a budgeting session and
// moves it in whole-month steps.
package calendar

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sort"
	"sync"
	"time"

	"github.com/goodsign/monday"

	"nickel/internal/core"
)

// ErrCalendarOverflow is returned when month arithmetic leaves the
// supported range of years 1 through 9999.
var ErrCalendarOverflow = errors.New("date outside supported calendar range")

// AddMonths shifts t by delta calendar months keeping the day of month,
// clamped to the last day of the target month (Jan 31 + 1 -> Feb 28 or 29).
// Time of day and location are preserved.
func AddMonths(t time.Time, delta int) (time.Time, error) {
	year, month, day := t.Date()
	total := int(month) - 1 + delta
	year += total / 12
	total %= 12
	if total < 0 {
		total += 12
		year--
	}
	target := time.Month(total + 1)
	if year < 1 || year > 9999 {
		return time.Time{}, fmt.Errorf("%w: %d-%02d", ErrCalendarOverflow, year, int(target))
	}
	if last := DaysIn(year, target); day > last {
		day = last
	}
	return time.Date(year, target, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()), nil
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Label formats t as "Month Year" for the given locale. "it", "it-IT" and
// "it_IT" are accepted; unknown locales fall back to English.
func Label(t time.Time, locale string) string {
	return monday.Format(t, "January 2006", ResolveLocale(locale))
}

// ResolveLocale maps a language or language-region tag to a locale known
// to the month name tables. A bare language picks its home region when
// one exists, otherwise the first region listed for it.
func ResolveLocale(locale string) monday.Locale {
	tag := strings.ReplaceAll(strings.TrimSpace(locale), "-", "_")
	lang, region, _ := strings.Cut(tag, "_")
	lang = strings.ToLower(lang)
	if lang == "" || (lang == "en" && region == "") {
		return monday.LocaleEnUS
	}

	known := SupportedLocales()
	want := lang + "_" + strings.ToUpper(region)
	if region == "" {
		want = lang + "_" + strings.ToUpper(lang)
	}
	for _, l := range known {
		if string(l) == want {
			return l
		}
	}
	if region == "" {
		for _, l := range known {
			if strings.HasPrefix(string(l), lang+"_") {
				return l
			}
		}
	}
	return monday.LocaleEnUS
}

// SupportedLocales lists the locales Label can name months in, sorted.
func SupportedLocales() []monday.Locale {
	locales := append([]monday.Locale(nil), monday.ListLocales()...)
	sort.Slice(locales, func(i, j int) bool { return locales[i] < locales[j] })
	return locales
}

// Navigator holds the selected date of a session. It is safe for
// concurrent use.
type Navigator struct {
	mu       sync.Mutex
	selected time.Time
	now      func() time.Time
	logger   *slog.Logger
}

// NewNavigator starts at now(). A nil clock means time.Now and a nil
// logger means slog.Default().
func NewNavigator(now func() time.Time, logger *slog.Logger) *Navigator {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{selected: now(), now: now, logger: logger}
}

// Selected returns the currently selected date.
func (n *Navigator) Selected() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.selected
}

// Month returns the month of the selected date.
func (n *Navigator) Month() core.Month {
	return core.MonthOf(n.Selected())
}

// Label formats the selected date for the header.
func (n *Navigator) Label(locale string) string {
	return Label(n.Selected(), locale)
}

// Previous moves one month back and returns the new selection.
func (n *Navigator) Previous() time.Time { return n.shift(-1) }

// Next moves one month forward and returns the new selection.
func (n *Navigator) Next() time.Time { return n.shift(1) }

// shift resets the selection to now when month arithmetic fails.
func (n *Navigator) shift(delta int) time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()

	next, err := AddMonths(n.selected, delta)
	if err != nil {
		now := n.now()
		n.logger.Warn("Month navigation failed, resetting to current date",
			"error", err,
			"from", n.selected.Format("2006-01-02"),
			"delta", delta,
			"reset_to", now.Format("2006-01-02"))
		n.selected = now
		return now
	}
	n.selected = next
	return next
}
