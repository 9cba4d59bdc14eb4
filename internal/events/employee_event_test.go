package events_test

import (
	"testing"
	"time"

	"github.com/carsonjc04/Hive-Engine/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeeEvent_WireShape(t *testing.T) {
	at := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	payload, err := events.Encode(events.NewTerminatedEvent(101, at))
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"TERMINATED","employeeId":101,"timestamp":"2026-01-02T15:04:05Z"}`, string(payload))
}

func TestDecode(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		e, err := events.Decode([]byte(`{"type":"TERMINATED","employeeId":101,"timestamp":"2026-01-02T15:04:05Z"}`))
		require.NoError(t, err)
		assert.Equal(t, int64(101), e.EmployeeID)
		assert.True(t, e.Is(events.EventTypeTerminated))
	})

	t.Run("epoch seconds timestamp", func(t *testing.T) {
		e, err := events.Decode([]byte(`{"type":"TERMINATED","employeeId":101,"timestamp":1767366245}`))
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC), e.Timestamp)
	})

	t.Run("fractional epoch timestamp", func(t *testing.T) {
		e, err := events.Decode([]byte(`{"type":"TERMINATED","employeeId":101,"timestamp":1767366245.250000000}`))
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 1, 2, 15, 4, 5, 250_000_000, time.UTC), e.Timestamp)
	})

	t.Run("unparseable timestamp", func(t *testing.T) {
		_, err := events.Decode([]byte(`{"type":"TERMINATED","employeeId":101,"timestamp":true}`))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := events.Decode([]byte(`{"type":`))
		assert.Error(t, err)
	})

	t.Run("missing employee id", func(t *testing.T) {
		_, err := events.Decode([]byte(`{"type":"TERMINATED"}`))
		assert.Error(t, err)
	})
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "hr.employee.terminated", events.RoutingKey("TERMINATED"))
	assert.Equal(t, "hr.employee.terminated", events.NewTerminatedEvent(1, time.Now()).RoutingKey())
}

func TestEmployeeEvent_IsIgnoresCase(t *testing.T) {
	e := events.EmployeeEvent{Type: "terminated", EmployeeID: 1}
	assert.True(t, e.Is(events.EventTypeTerminated))
	assert.False(t, e.Is("HIRED"))
}
