package main

import (
	"context"
	"fmt"
	"time"

	"nickel/internal/backend"
	nlog "nickel/internal/log"
)

const (
	pingInterval   = 30 * time.Second
	maxPingFailure = 3
)

// watchStore pings the item store until ctx ends. Consecutive failures
// beyond maxPingFailure stop the worker.
func watchStore(ctx context.Context, p backend.Pinger, logger *nlog.Logger) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.Ping(ctx); err != nil {
				failures++
				logger.Warn("Item store ping failed", nlog.FieldError, err, "failures", failures)
				if failures >= maxPingFailure {
					return fmt.Errorf("item store unreachable after %d pings: %w", failures, err)
				}
				continue
			}
			failures = 0
		}
	}
}
