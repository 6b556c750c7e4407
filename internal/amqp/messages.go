package amqp

import (
	"encoding/json"
	"time"
)

// LedgerEventMessage announces one committed ledger operation. It carries
// only identifiers; the worker fetches the data it needs from the store.
type LedgerEventMessage struct {
	User      string    `json:"user"`
	Operation string    `json:"operation"`
	TxIDs     []string  `json:"txIds,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(user, operation string, txIDs []string) *LedgerEventMessage {
	return &LedgerEventMessage{
		User:      user,
		Operation: operation,
		TxIDs:     txIDs,
		Timestamp: time.Now(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
