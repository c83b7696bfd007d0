package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeKeysByResource(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	msg, err := encode(Event{Type: HoldCreated, HoldID: "h1", ResourceID: "r1", Date: "2026-03-02", Quantity: 2, OccurredAt: at})
	require.NoError(t, err)

	assert.Equal(t, "r1", string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, HoldCreated, string(msg.Headers[0].Value))
	assert.Equal(t, at, msg.Time)

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "h1", decoded.HoldID)
	assert.Equal(t, 2, decoded.Quantity)
}

func TestEncodeStampsMissingTime(t *testing.T) {
	msg, err := encode(Event{Type: HoldExpired, ResourceID: "r1"})
	require.NoError(t, err)
	assert.False(t, msg.Time.IsZero())
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: HoldReleased}))
}
