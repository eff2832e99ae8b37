package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// LedgerEventMessage announces a change to a ledger transaction. It carries
// identity only; names and amounts stay in the process that owns the ledger.
type LedgerEventMessage struct {
	Type          string    `json:"type"`
	TransactionID string    `json:"transaction_id"`
	Kind          string    `json:"kind"`
	Month         string    `json:"month"`
	Timestamp     time.Time `json:"timestamp"`
}

var errIncompleteMessage = errors.New("ledger event message is missing type or transaction id")

// NewLedgerEventMessage stamps a message with the current time.
func NewLedgerEventMessage(eventType, transactionID, kind, month string) *LedgerEventMessage {
	return &LedgerEventMessage{
		Type:          eventType,
		TransactionID: transactionID,
		Kind:          kind,
		Month:         month,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON decodes and checks a message body.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" || msg.TransactionID == "" {
		return nil, errIncompleteMessage
	}
	return &msg, nil
}
