package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"nickel/internal/amqp"
	"nickel/internal/budget"
	"nickel/internal/cache"
	"nickel/internal/calendar"
	"nickel/internal/cli"
	"nickel/internal/config"
	apphttp "nickel/internal/http"
	"nickel/internal/items"
	"nickel/internal/ledger"
	nlog "nickel/internal/log"
	"nickel/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, logger := cli.Bootstrap("nickel server")

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server error", nlog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *nlog.Logger) error {
	budgetLogger := logger.WithComponent(nlog.ComponentBudget).Logger

	editor, err := budget.NewEditor(cfg.Currency)
	if err != nil {
		return err
	}
	store := ledger.New()
	session := budget.NewSession(store, calendar.NewNavigator(time.Now, budgetLogger), editor, budget.Options{
		Locale:       cfg.Locale,
		ScopeToMonth: cfg.ScopeToMonth(),
		Logger:       budgetLogger,
	})

	res, err := cli.OpenItemStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Item store cleanup failed", nlog.FieldError, err)
		}
	}()

	caches := cache.NewManager(logger.WithComponent(nlog.ComponentCache).Logger)
	itemStore := items.NewCachedStore(res.Store, cfg.ItemsCacheTTL, caches, logger.WithComponent(nlog.ComponentItems).Logger)
	if cfg.ItemsCacheTTL > 0 {
		caches.StartCleanup(cfg.ItemsCacheTTL)
		defer caches.Stop()
	}

	if cfg.AMQPURL != "" {
		stopEvents, err := startLedgerEvents(ctx, cfg, store, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, ledger events disabled", nlog.FieldError, err)
		} else {
			defer stopEvents()
		}
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Session:            session,
		Items:              itemStore,
		Ready:              res.Pinger,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CORSOrigins:        cfg.CORSOrigins,
		TrustedProxies:     cfg.TrustedProxies,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting nickel server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", nlog.FieldError, err)
			return err
		}
		stats := srv.Stats()
		logger.Info("HTTP totals",
			"requests", stats.Requests.TotalRequests,
			"server_errors", stats.Requests.ServerErrors,
			"blocked", stats.Security.BlockedRequests)
		return nil
	})
	return g.Wait()
}

// startLedgerEvents forwards every ledger change to the broker. The
// returned function unsubscribes, drains pending events and closes the
// connection.
func startLedgerEvents(ctx context.Context, cfg *config.Config, store *ledger.Store, logger *nlog.Logger) (func(), error) {
	amqpLogger := logger.WithComponent(nlog.ComponentAMQP)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, err
	}

	publisher := services.NewEventPublisher(client, services.DefaultEventPublisherConfig(), amqpLogger.Logger)
	// the loop outlives the signal context so Stop can drain it
	if err := publisher.Start(context.WithoutCancel(ctx)); err != nil {
		_ = client.Close()
		return nil, err
	}
	unsubscribe := store.Subscribe(publisher.Listen)
	amqpLogger.Info("Publishing ledger events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	return func() {
		unsubscribe()
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := publisher.Stop(stopCtx); err != nil {
			amqpLogger.Warn("Ledger events not fully drained", nlog.FieldError, err, "dropped", publisher.Dropped())
		}
		if err := client.Close(); err != nil {
			amqpLogger.Error("AMQP close failed", nlog.FieldError, err)
		}
	}, nil
}
