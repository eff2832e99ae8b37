package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"nickel/internal/amqp"
	"nickel/internal/ledger"
	nlog "nickel/internal/log"
)

// Publisher sends ledger events to a broker.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error
}

// EventPublisherConfig holds configuration for the event publisher
type EventPublisherConfig struct {
	// BufferSize bounds queued events; further events are dropped (default: 256)
	BufferSize int

	// PublishTimeout limits a single publish (default: 5s)
	PublishTimeout time.Duration
}

// DefaultEventPublisherConfig returns sensible defaults
func DefaultEventPublisherConfig() EventPublisherConfig {
	return EventPublisherConfig{
		BufferSize:     256,
		PublishTimeout: 5 * time.Second,
	}
}

// EventPublisher forwards ledger events to AMQP from its own goroutine so
// that ledger writes never wait on the broker.
type EventPublisher struct {
	publisher Publisher
	config    EventPublisherConfig
	logger    *slog.Logger
	events    chan ledger.Event

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	dropped int
}

func NewEventPublisher(publisher Publisher, config EventPublisherConfig, logger *slog.Logger) *EventPublisher {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultEventPublisherConfig().BufferSize
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = DefaultEventPublisherConfig().PublishTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EventPublisher{
		publisher: publisher,
		config:    config,
		logger:    logger.With("component", "amqp"),
		events:    make(chan ledger.Event, config.BufferSize),
	}
}

// Listen is a ledger.Listener. It never blocks.
func (p *EventPublisher) Listen(ev ledger.Event) {
	select {
	case p.events <- ev:
	default:
		p.mu.Lock()
		p.dropped++
		p.mu.Unlock()
		p.logger.Warn("Ledger event dropped, publish buffer full",
			"type", ev.Type,
			"transaction_id", ev.Transaction.ID)
	}
}

// Dropped returns how many events were discarded because the buffer was full.
func (p *EventPublisher) Dropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Start begins the publish loop. Returns an error if already running.
func (p *EventPublisher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return fmt.Errorf("event publisher is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})

	go p.runLoop(ctx, p.stopCh, p.doneCh)

	p.logger.InfoContext(ctx, "Event publisher started", "buffer_size", p.config.BufferSize)
	return nil
}

// Stop drains queued events and waits for the loop to finish or ctx to end.
func (p *EventPublisher) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		p.logger.InfoContext(ctx, "Event publisher stopped gracefully")
		return nil
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Event publisher stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the publish loop is running
func (p *EventPublisher) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *EventPublisher) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	for {
		select {
		case ev := <-p.events:
			p.publish(ctx, ev)
		case <-ctx.Done():
			return
		case <-stopCh:
			p.drain(ctx)
			return
		}
	}
}

func (p *EventPublisher) drain(ctx context.Context) {
	for {
		select {
		case ev := <-p.events:
			p.publish(ctx, ev)
		default:
			return
		}
	}
}

func (p *EventPublisher) publish(ctx context.Context, ev ledger.Event) {
	ctx, cancel := context.WithTimeout(ctx, p.config.PublishTimeout)
	defer cancel()

	if err := p.publisher.PublishLedgerEvent(ctx, MessageFromEvent(ev)); err != nil {
		// the ledger already holds the change; only the notification is lost
		fields := nlog.NewFields().
			WithTransaction(ev.Transaction.ID.String(), ev.Transaction.Kind.String(), ev.Transaction.Month.String()).
			WithError(err)
		p.logger.ErrorContext(ctx, "Failed to publish ledger event",
			append(fields.Args(), nlog.FieldEventType, string(ev.Type))...)
	}
}

// MessageFromEvent converts a ledger event into its wire form.
func MessageFromEvent(ev ledger.Event) *amqp.LedgerEventMessage {
	msg := amqp.NewLedgerEventMessage(
		string(ev.Type),
		ev.Transaction.ID.String(),
		ev.Transaction.Kind.String(),
		ev.Transaction.Month.String(),
	)
	if !ev.At.IsZero() {
		msg.Timestamp = ev.At
	}
	return msg
}
