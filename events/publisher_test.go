package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padraicbc/trainagenda/scheduling"
)

func TestEncodeBookingEvent(t *testing.T) {
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	data, err := Encode(scheduling.BookingEvent{
		EventType: scheduling.EventEvaluationBooked,
		BookingID: "b1",
		SlotID:    "s1",
		TrainerID: "t1",
		MemberID:  "m1",
		TenantID:  "acme",
		Start:     start,
		At:        start,
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "evaluation.booked", got["event_type"])
	assert.Equal(t, "b1", got["booking_id"])
	assert.Equal(t, "acme", got["tenant_id"])
	assert.Equal(t, "2025-03-10T10:00:00Z", got["start"])
}

func TestEncodeRejectsUnsupportedPayload(t *testing.T) {
	_, err := Encode(make(chan int))
	assert.Error(t, err)
}

func TestNopPublisher(t *testing.T) {
	var p scheduling.EventPublisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), "evaluation.booked", struct{}{}))
}
