package amqp

import (
	"testing"
	"time"
)

func TestNewLedgerEventMessage(t *testing.T) {
	msg := NewLedgerEventMessage("nauval", "transfer", []string{"t1", "t2"})

	if msg.User != "nauval" || msg.Operation != "transfer" {
		t.Fatalf("wrong message: %+v", msg)
	}
	if len(msg.TxIDs) != 2 {
		t.Fatalf("expected 2 tx ids, got %d", len(msg.TxIDs))
	}
	if msg.Timestamp.IsZero() || time.Since(msg.Timestamp) > time.Second {
		t.Fatalf("timestamp not recent: %v", msg.Timestamp)
	}
}

func TestLedgerEventMessageJSON(t *testing.T) {
	msg := &LedgerEventMessage{
		User:      "mufel",
		Operation: "transaction.create",
		TxIDs:     []string{"abc"},
		Timestamp: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	parsed, err := LedgerEventMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if parsed.User != msg.User || parsed.Operation != msg.Operation {
		t.Fatalf("round trip changed message: %+v", parsed)
	}
	if len(parsed.TxIDs) != 1 || parsed.TxIDs[0] != "abc" {
		t.Fatalf("round trip changed tx ids: %v", parsed.TxIDs)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Fatalf("round trip changed timestamp: %v", parsed.Timestamp)
	}
}

func TestLedgerEventMessageInvalidJSON(t *testing.T) {
	if _, err := LedgerEventMessageFromJSON([]byte(`{"user": 42}`)); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
