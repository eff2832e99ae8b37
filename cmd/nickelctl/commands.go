package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/subcommands"
	"gopkg.in/yaml.v3"
	"nickel/internal/budget"
	"nickel/internal/calendar"
	"nickel/internal/cli"
	"nickel/internal/config"
	"nickel/internal/core"
	"nickel/internal/items"
	nlog "nickel/internal/log"
	"nickel/internal/storage"
)

// env is shared by every command.
type env struct {
	cfg    *config.Config
	logger *nlog.Logger
	out    io.Writer
	errOut io.Writer
}

func (e *env) failf(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(e.errOut, "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}

// withStore opens the configured item store for the duration of fn.
func (e *env) withStore(ctx context.Context, fn func(items.Store) error) error {
	res, err := cli.OpenItemStore(ctx, e.cfg, e.logger)
	if err != nil {
		return err
	}
	defer func() { _ = res.Cleanup() }()
	return fn(res.Store)
}

// --- migrateCmd ---

type migrateCmd struct {
	*env
	db string
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending SQLite migrations" }
func (*migrateCmd) Usage() string {
	return `nickelctl migrate [-db <path>]

  Brings the SQLite item store to the latest schema and prints its version.
  Defaults to SQLITE_DB_PATH.
`
}
func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.db, "db", "", "Path to the SQLite database (default: SQLITE_DB_PATH).")
}

func (c *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	path := c.db
	if path == "" {
		path = c.cfg.SQLiteDBPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return c.failf("create %s: %v", dir, err)
		}
	}
	if err := storage.RunMigrations(path); err != nil {
		return c.failf("%v", err)
	}
	version, dirty, err := storage.MigrationVersion(path)
	if err != nil {
		return c.failf("%v", err)
	}

	repo, err := storage.NewItemRepository(path)
	if err != nil {
		return c.failf("%v", err)
	}
	defer repo.Close()
	count, err := repo.Count(ctx)
	if err != nil {
		return c.failf("count items: %v", err)
	}
	fmt.Fprintf(c.out, "%s at schema version %d (dirty=%t), %d item(s)\n", path, version, dirty, count)
	return subcommands.ExitSuccess
}

// --- itemsCmd ---

type itemsCmd struct {
	*env
	format string
}

func (*itemsCmd) Name() string     { return "items" }
func (*itemsCmd) Synopsis() string { return "list recorded items, oldest first" }
func (*itemsCmd) Usage() string {
	return `nickelctl items [-format text|json|yaml]

  Lists every item in the store named by DATA_BACKEND.
`
}
func (c *itemsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "text", "Output format: text, json or yaml.")
}

func (c *itemsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var list []items.Item
	err := c.withStore(ctx, func(s items.Store) error {
		var err error
		list, err = s.List(ctx)
		return err
	})
	if err != nil {
		return c.failf("list items: %v", err)
	}

	if list == nil {
		list = []items.Item{}
	}
	switch c.format {
	case "json":
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(list); err != nil {
			return c.failf("%v", err)
		}
		return subcommands.ExitSuccess
	case "yaml":
		enc := yaml.NewEncoder(c.out)
		enc.SetIndent(2)
		if err := enc.Encode(toYAML(list)); err != nil {
			return c.failf("%v", err)
		}
		if err := enc.Close(); err != nil {
			return c.failf("%v", err)
		}
		return subcommands.ExitSuccess
	case "text":
	default:
		fmt.Fprintf(c.errOut, "Error: unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}
	for _, it := range list {
		fmt.Fprintf(c.out, "%d\t%s\n", it.ID, it.Timestamp.Format(time.RFC3339))
	}
	return subcommands.ExitSuccess
}

type yamlItem struct {
	ID        int64  `yaml:"id"`
	Timestamp string `yaml:"timestamp"`
}

func toYAML(list []items.Item) []yamlItem {
	out := make([]yamlItem, 0, len(list))
	for _, it := range list {
		out = append(out, yamlItem{ID: it.ID, Timestamp: it.Timestamp.Format(time.RFC3339Nano)})
	}
	return out
}

// --- recordCmd ---

type recordCmd struct {
	*env
	at string
}

func (*recordCmd) Name() string     { return "record" }
func (*recordCmd) Synopsis() string { return "record a new item" }
func (*recordCmd) Usage() string {
	return `nickelctl record [-at <RFC3339 time>]

  Stores one item stamped with the given time, or now.
`
}
func (c *recordCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.at, "at", "", "Timestamp in RFC3339 form (default: now).")
}

func (c *recordCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ts := time.Now()
	if c.at != "" {
		parsed, err := time.Parse(time.RFC3339, c.at)
		if err != nil {
			fmt.Fprintf(c.errOut, "Error parsing -at: %v\n", err)
			return subcommands.ExitUsageError
		}
		ts = parsed
	}

	var created items.Item
	err := c.withStore(ctx, func(s items.Store) error {
		var err error
		created, err = s.Create(ctx, ts)
		return err
	})
	if err != nil {
		return c.failf("record item: %v", err)
	}
	fmt.Fprintf(c.out, "%d\n", created.ID)
	return subcommands.ExitSuccess
}

// --- forgetCmd ---

type forgetCmd struct{ *env }

func (*forgetCmd) Name() string     { return "forget" }
func (*forgetCmd) Synopsis() string { return "delete items by id" }
func (*forgetCmd) Usage() string {
	return `nickelctl forget <id> [<id>...]

  Deletes the given items. Nothing is deleted if any id is unknown.
`
}
func (*forgetCmd) SetFlags(*flag.FlagSet) {}

func (c *forgetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(c.errOut, "Error: at least one id is required.")
		return subcommands.ExitUsageError
	}
	ids := make([]int64, 0, f.NArg())
	for _, arg := range f.Args() {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id < 1 {
			fmt.Fprintf(c.errOut, "Error: invalid id %q\n", arg)
			return subcommands.ExitUsageError
		}
		ids = append(ids, id)
	}

	if err := c.withStore(ctx, func(s items.Store) error { return s.Delete(ctx, ids...) }); err != nil {
		return c.failf("forget items: %v", err)
	}
	fmt.Fprintf(c.out, "deleted %d item(s)\n", len(ids))
	return subcommands.ExitSuccess
}

// --- amountCmd ---

type amountCmd struct {
	*env
	currency string
	income   bool
}

func (*amountCmd) Name() string     { return "amount" }
func (*amountCmd) Synopsis() string { return "parse an amount the way the budget screen does" }
func (*amountCmd) Usage() string {
	return `nickelctl amount [-currency <code>] [-income] <text>

  Parses text with the currency's separators and prints the stored value,
  the signed display form and the editable form.
`
}
func (c *amountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "currency", "", "ISO 4217 code (default: CURRENCY).")
	f.BoolVar(&c.income, "income", false, "Format as income rather than expense.")
}

func (c *amountCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(c.errOut, "Error: exactly one amount is required.")
		return subcommands.ExitUsageError
	}
	code := c.currency
	if code == "" {
		code = c.cfg.Currency
	}
	editor, err := budget.NewEditor(code)
	if err != nil {
		return c.failf("%v", err)
	}
	value, err := editor.ParseAmount(f.Arg(0))
	if err != nil {
		return c.failf("%v", err)
	}

	tx := core.Transaction{Kind: core.Expense, Value: value}
	if c.income {
		tx.Kind = core.Income
	}
	fmt.Fprintf(c.out, "value\t%s\ndisplay\t%s\ninput\t%s\n", value, editor.Format(tx), editor.InputValue(value))
	return subcommands.ExitSuccess
}

// --- monthsCmd ---

type monthsCmd struct {
	*env
	locale string
	from   string
	count  int
}

func (*monthsCmd) Name() string     { return "months" }
func (*monthsCmd) Synopsis() string { return "print month labels starting from a month" }
func (*monthsCmd) Usage() string {
	return `nickelctl months [-locale <lang>] [-from YYYY-MM] [-n <count>]

  Prints count consecutive month labels. A negative count walks backwards.
`
}
func (c *monthsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.locale, "locale", "", "Label language (default: LOCALE).")
	f.StringVar(&c.from, "from", "", "First month as YYYY-MM (default: this month).")
	f.IntVar(&c.count, "n", 1, "Number of months to print.")
}

func (c *monthsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	locale := c.locale
	if locale == "" {
		locale = c.cfg.Locale
	}
	start := time.Now()
	if c.from != "" {
		m, err := core.ParseMonth(c.from)
		if err != nil {
			fmt.Fprintf(c.errOut, "Error parsing -from: %v\n", err)
			return subcommands.ExitUsageError
		}
		start = time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	}

	step, n := 1, c.count
	if n < 0 {
		step, n = -1, -n
	}
	for i := 0; i < n; i++ {
		t, err := calendar.AddMonths(start, i*step)
		if err != nil {
			return c.failf("%v", err)
		}
		fmt.Fprintf(c.out, "%s\t%s\n", core.MonthOf(t), calendar.Label(t, locale))
	}
	return subcommands.ExitSuccess
}
