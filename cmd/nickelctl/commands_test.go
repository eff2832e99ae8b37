package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
	"nickel/internal/config"
	nlog "nickel/internal/log"
)

func newTestEnv(t *testing.T) (*env, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	cfg := &config.Config{
		Currency:     "USD",
		Locale:       "en",
		DataBackend:  "sqlite",
		SQLiteDBPath: filepath.Join(t.TempDir(), "data", "nickel.db"),
	}
	return &env{
		cfg:    cfg,
		logger: nlog.New(nlog.Config{Output: io.Discard}),
		out:    &out,
		errOut: io.Discard,
	}, &out
}

func execute(t *testing.T, e *env, args ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet("nickelctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	c := subcommands.NewCommander(fs, "nickelctl")
	c.Output, c.Error = io.Discard, io.Discard
	register(c, e)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return c.Execute(context.Background())
}

func TestStoreCommands(t *testing.T) {
	e, out := newTestEnv(t)

	if got := execute(t, e, "migrate"); got != subcommands.ExitSuccess {
		t.Fatalf("migrate = %v", got)
	}
	if !strings.Contains(out.String(), "schema version 1") {
		t.Fatalf("migrate output: %q", out)
	}

	out.Reset()
	execute(t, e, "record", "-at", "2024-03-02T10:00:00Z")
	execute(t, e, "record", "-at", "2024-03-01T10:00:00Z")
	if out.String() != "1\n2\n" {
		t.Fatalf("record output: %q", out)
	}

	out.Reset()
	execute(t, e, "items")
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "2\t2024-03-01") {
		t.Fatalf("items should list oldest first: %q", out)
	}

	out.Reset()
	execute(t, e, "items", "-format", "yaml")
	if !strings.HasPrefix(out.String(), "- id: 2\n") || !strings.Contains(out.String(), "2024-03-01T10:00:00Z") {
		t.Fatalf("yaml output: %q", out)
	}

	if got := execute(t, e, "forget", "1", "99"); got != subcommands.ExitFailure {
		t.Fatalf("forget with unknown id = %v", got)
	}
	if got := execute(t, e, "forget", "x"); got != subcommands.ExitUsageError {
		t.Fatalf("forget with bad id = %v", got)
	}
	if got := execute(t, e, "forget", "1", "2"); got != subcommands.ExitSuccess {
		t.Fatalf("forget = %v", got)
	}

	out.Reset()
	execute(t, e, "items", "-format", "json")
	if strings.TrimSpace(out.String()) != "[]" {
		t.Fatalf("expected empty JSON list, got %q", out)
	}
	if got := execute(t, e, "items", "-format", "csv"); got != subcommands.ExitUsageError {
		t.Fatalf("unknown format = %v", got)
	}

	if got := execute(t, e, "record", "-at", "yesterday"); got != subcommands.ExitUsageError {
		t.Fatalf("bad -at = %v", got)
	}
}

func TestAmountCommand(t *testing.T) {
	e, out := newTestEnv(t)

	if got := execute(t, e, "amount", "-currency", "EUR", "-income", "1.234,50"); got != subcommands.ExitSuccess {
		t.Fatalf("amount = %v", got)
	}
	if !strings.Contains(out.String(), "value\t1234.5\n") {
		t.Fatalf("unexpected output: %q", out)
	}

	if got := execute(t, e, "amount", "lots"); got != subcommands.ExitFailure {
		t.Fatalf("bad amount = %v", got)
	}
	if got := execute(t, e, "amount"); got != subcommands.ExitUsageError {
		t.Fatalf("missing amount = %v", got)
	}
}

func TestMonthsCommand(t *testing.T) {
	e, out := newTestEnv(t)

	if got := execute(t, e, "months", "-locale", "it", "-from", "2024-12", "-n", "2"); got != subcommands.ExitSuccess {
		t.Fatalf("months = %v", got)
	}
	want := "2024-12\tdicembre 2024\n2025-01\tgennaio 2025\n"
	if out.String() != want {
		t.Fatalf("months output = %q, want %q", out, want)
	}

	out.Reset()
	execute(t, e, "months", "-from", "2024-01", "-n", "-2")
	if out.String() != "2024-01\tJanuary 2024\n2023-12\tDecember 2023\n" {
		t.Fatalf("backwards output = %q", out)
	}
}
