package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"
	"nickel/internal/amqp"
	"nickel/internal/cli"
	"nickel/internal/config"
	nlog "nickel/internal/log"
	"nickel/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap("nickel-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	if cfg.DataBackend == "memory" {
		logger.Warn("Recording activity in memory, items are lost on exit")
	}

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Worker error", nlog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *nlog.Logger) error {
	workerLogger := logger.WithComponent(nlog.ComponentWorker)

	res, err := cli.OpenItemStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			workerLogger.Error("Item store cleanup failed", nlog.FieldError, err)
		}
	}()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	recorder := services.NewActivityRecorder(res.Store, workerLogger.Logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		workerLogger.Info("Consuming ledger events", "queue", cfg.AMQPQueue)
		err := client.ConsumeLedgerEvents(gctx, recorder.Handle)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	if res.Pinger != nil {
		g.Go(func() error {
			// fail fast if the store goes away while idle
			return watchStore(gctx, res.Pinger, workerLogger)
		})
	}
	return g.Wait()
}
