package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"nickel/internal/amqp"
	"nickel/internal/items"
	"nickel/internal/items/memory"
)

type failingWriter struct{}

func (failingWriter) Create(context.Context, time.Time) (items.Item, error) {
	return items.Item{}, errors.New("disk full")
}
func (failingWriter) Delete(context.Context, ...int64) error { return nil }

func TestActivityRecorderStoresEventTime(t *testing.T) {
	store := memory.New()
	r := NewActivityRecorder(store, quietLogger())
	at := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)

	msg := &amqp.LedgerEventMessage{Type: "transaction.added", TransactionID: "x", Timestamp: at}
	if err := r.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got, _ := store.List(context.Background())
	if len(got) != 1 || !got[0].Timestamp.Equal(at) {
		t.Fatalf("unexpected items %v", got)
	}
}

func TestActivityRecorderFallsBackToNow(t *testing.T) {
	store := memory.New()
	r := NewActivityRecorder(store, quietLogger())
	fixed := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	_ = r.Handle(context.Background(), &amqp.LedgerEventMessage{Type: "transaction.edited", TransactionID: "x"})
	got, _ := store.List(context.Background())
	if len(got) != 1 || !got[0].Timestamp.Equal(fixed) {
		t.Fatalf("unexpected items %v", got)
	}
}

func TestActivityRecorderReturnsStoreErrors(t *testing.T) {
	r := NewActivityRecorder(failingWriter{}, quietLogger())
	err := r.Handle(context.Background(), &amqp.LedgerEventMessage{Type: "transaction.added", TransactionID: "x", Timestamp: time.Now()})
	if err == nil {
		t.Fatalf("expected error so that the message is requeued")
	}
}
