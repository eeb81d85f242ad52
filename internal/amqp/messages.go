package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"zent/internal/core"
)

const (
	OpUpsert = "sync"
	OpDelete = "delete"
)

// LedgerChangeMessage announces that one event changed. It carries only
// references; the consumer reads the event itself from the store.
type LedgerChangeMessage struct {
	UserID    string         `json:"user_id"`
	Kind      core.EventKind `json:"kind"`
	EventID   string         `json:"event_id"`
	Op        string         `json:"op"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewLedgerChangeMessage(userID string, kind core.EventKind, eventID, op string) *LedgerChangeMessage {
	return &LedgerChangeMessage{
		UserID:    userID,
		Kind:      kind,
		EventID:   eventID,
		Op:        op,
		Timestamp: time.Now(),
	}
}

func (m *LedgerChangeMessage) Validate() error {
	if _, ok := core.ParseEventKind(string(m.Kind)); !ok {
		return errors.New("unknown event kind")
	}
	if m.EventID == "" {
		return errors.New("missing event id")
	}
	if m.Op != OpUpsert && m.Op != OpDelete {
		return errors.New("unknown operation")
	}
	return nil
}

func (m *LedgerChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangeMessageFromJSON decodes and validates a message body.
func LedgerChangeMessageFromJSON(data []byte) (*LedgerChangeMessage, error) {
	var msg LedgerChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
