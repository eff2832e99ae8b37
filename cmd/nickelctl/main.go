// Command nickelctl administers the nickel item store and checks how
// amounts and month labels are read and written.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"nickel/internal/cli"
	"nickel/internal/config"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	e := &env{cfg: cfg, out: os.Stdout, errOut: os.Stderr}
	e.logger = cli.SetupLogger(cfg, os.Stderr)

	commander := subcommands.NewCommander(flag.CommandLine, "nickelctl")
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	register(commander, e)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func register(c *subcommands.Commander, e *env) {
	c.Register(&migrateCmd{env: e}, "store")
	c.Register(&itemsCmd{env: e}, "store")
	c.Register(&recordCmd{env: e}, "store")
	c.Register(&forgetCmd{env: e}, "store")
	c.Register(&amountCmd{env: e}, "budget")
	c.Register(&monthsCmd{env: e}, "budget")
}
