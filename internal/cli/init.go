// Package cli holds the start-up steps shared by cmd/nickel,
// cmd/nickel-worker and cmd/nickelctl.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"nickel/internal/backend"
	"nickel/internal/config"
	nlog "nickel/internal/log"
)

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config, out io.Writer) *nlog.Logger {
	if out == nil {
		out = os.Stdout
	}
	logger := nlog.New(nlog.Config{
		Level:     nlog.ParseLevel(cfg.LogLevel),
		Component: nlog.ComponentApp,
		Format:    cfg.LogFormat,
		Output:    out,
	})
	nlog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// Bootstrap loads .env and the configuration, sets up logging and validates.
// It exits the process when the configuration is invalid.
func Bootstrap(name string) (*config.Config, *nlog.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", nlog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Starting "+name,
		"backend", cfg.DataBackend,
		"currency", cfg.Currency,
		"locale", cfg.Locale,
		"ledger_scope", cfg.LedgerScope)
	return cfg, logger
}

// OpenItemStore creates the item store backend named by DATA_BACKEND.
func OpenItemStore(ctx context.Context, cfg *config.Config, logger *nlog.Logger) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(nlog.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open %s item store: %w", bcfg.Type, err)
	}
	if res.Cleanup == nil {
		res.Cleanup = func() error { return nil }
	}
	return res, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *nlog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
