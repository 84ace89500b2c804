package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

var ErrInvalidEvent = errors.New("invalid transaction event")

// TransactionEvent tells consumers that a transaction changed. It carries no
// amounts or descriptions; consumers load the current record themselves.
// Version is monotonic per transaction so stale deliveries can be dropped.
type TransactionEvent struct {
	Type      EventType `json:"type"`
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEvent(t EventType, id, ownerID string, version int64) TransactionEvent {
	return TransactionEvent{
		Type:      t,
		ID:        id,
		OwnerID:   ownerID,
		Version:   version,
		Timestamp: time.Now().UTC(),
	}
}

func (e TransactionEvent) Validate() error {
	switch e.Type {
	case EventCreated, EventUpdated, EventDeleted:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	if e.ID == "" || e.OwnerID == "" {
		return fmt.Errorf("%w: id and owner_id are required", ErrInvalidEvent)
	}
	return nil
}

func (e TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and validates a delivery body.
func TransactionEventFromJSON(data []byte) (TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return TransactionEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := ev.Validate(); err != nil {
		return TransactionEvent{}, err
	}
	return ev, nil
}
