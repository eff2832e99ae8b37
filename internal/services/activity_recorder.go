package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nickel/internal/amqp"
	"nickel/internal/items"
)

// ActivityRecorder stores one item per consumed ledger event, stamped with
// the event time.
type ActivityRecorder struct {
	store  items.Writer
	now    func() time.Time
	logger *slog.Logger
}

func NewActivityRecorder(store items.Writer, logger *slog.Logger) *ActivityRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityRecorder{
		store:  store,
		now:    time.Now,
		logger: logger.With("component", "worker"),
	}
}

// Handle implements amqp.Handler. A storage error is returned so that the
// message is requeued.
func (r *ActivityRecorder) Handle(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = r.now()
	}

	it, err := r.store.Create(ctx, ts)
	if err != nil {
		return fmt.Errorf("record %s for %s: %w", msg.Type, msg.TransactionID, err)
	}

	r.logger.InfoContext(ctx, "Ledger activity recorded",
		"item_id", it.ID,
		"event_type", msg.Type,
		"transaction_id", msg.TransactionID,
		"month", msg.Month)
	return nil
}
