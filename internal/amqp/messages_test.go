package amqp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransactionEvent(t *testing.T) {
	ev := NewTransactionEvent(EventUpdated, "tx-9", "alice", 42)

	assert.Equal(t, EventUpdated, ev.Type)
	assert.Equal(t, "tx-9", ev.ID)
	assert.Equal(t, "alice", ev.OwnerID)
	assert.Equal(t, int64(42), ev.Version)
	assert.WithinDuration(t, time.Now(), ev.Timestamp, time.Second)
	assert.NoError(t, ev.Validate())
}

func TestTransactionEventJSON(t *testing.T) {
	ev := TransactionEvent{
		Type:      EventDeleted,
		ID:        "tx-1",
		OwnerID:   "bob",
		Version:   7,
		Timestamp: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	body, err := ev.ToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"deleted","id":"tx-1","owner_id":"bob","version":7,"timestamp":"2025-01-01T12:00:00Z"}`, string(body))

	parsed, err := TransactionEventFromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, ev, parsed)
}

func TestTransactionEventFromJSONRejects(t *testing.T) {
	for name, body := range map[string]string{
		"malformed":    `{"id": 12`,
		"wrong type":   `{"type":"created","id":5,"owner_id":"a"}`,
		"unknown kind": `{"type":"archived","id":"x","owner_id":"a"}`,
		"no owner":     `{"type":"created","id":"x"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := TransactionEventFromJSON([]byte(body))
			assert.ErrorIs(t, err, ErrInvalidEvent)
		})
	}
}
