package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EmployeeLifecycleTopic carries every hr.employee.* event. Consumers narrow
// it down by routing key.
const EmployeeLifecycleTopic = "hr.employee.lifecycle.v1"

const (
	EventTypeTerminated = "TERMINATED"

	routingKeyPrefix = "hr.employee."
)

// EmployeeEvent is a fact about a past change of an employee. It is not a
// command: consumers treat it as idempotent input.
type EmployeeEvent struct {
	Type       string    `json:"type"`
	EmployeeID int64     `json:"employeeId"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewTerminatedEvent(employeeID int64, at time.Time) EmployeeEvent {
	return EmployeeEvent{
		Type:       EventTypeTerminated,
		EmployeeID: employeeID,
		Timestamp:  at.UTC(),
	}
}

// Is compares event types case-insensitively.
func (e EmployeeEvent) Is(eventType string) bool {
	return strings.EqualFold(e.Type, eventType)
}

// RoutingKey derives the hierarchical key, e.g. TERMINATED -> hr.employee.terminated.
func (e EmployeeEvent) RoutingKey() string {
	return RoutingKey(e.Type)
}

func RoutingKey(eventType string) string {
	return routingKeyPrefix + strings.ToLower(eventType)
}

func (e EmployeeEvent) Validate() error {
	if e.Type == "" {
		return errors.New("employee event type is required")
	}
	if e.EmployeeID <= 0 {
		return fmt.Errorf("employee event has invalid employee id %d", e.EmployeeID)
	}
	return nil
}

func Encode(e EmployeeEvent) ([]byte, error) {
	return json.Marshal(e)
}

// wireEvent defers the timestamp so producers may send either RFC3339 or
// epoch seconds.
type wireEvent struct {
	Type       string          `json:"type"`
	EmployeeID int64           `json:"employeeId"`
	Timestamp  json.RawMessage `json:"timestamp"`
}

func Decode(payload []byte) (EmployeeEvent, error) {
	var w wireEvent
	if err := json.Unmarshal(payload, &w); err != nil {
		return EmployeeEvent{}, fmt.Errorf("decode employee event: %w", err)
	}
	ts, err := decodeTimestamp(w.Timestamp)
	if err != nil {
		return EmployeeEvent{}, fmt.Errorf("decode employee event: %w", err)
	}

	e := EmployeeEvent{Type: w.Type, EmployeeID: w.EmployeeID, Timestamp: ts}
	if err := e.Validate(); err != nil {
		return EmployeeEvent{}, err
	}
	return e, nil
}

// decodeTimestamp accepts an RFC3339 string or a JSON number of epoch
// seconds with an optional fraction. A missing or null value is zero time.
func decodeTimestamp(raw json.RawMessage) (time.Time, error) {
	v := strings.TrimSpace(string(raw))
	if v == "" || v == "null" {
		return time.Time{}, nil
	}

	if strings.HasPrefix(v, `"`) {
		var t time.Time
		if err := json.Unmarshal(raw, &t); err != nil {
			return time.Time{}, fmt.Errorf("timestamp: %w", err)
		}
		return t.UTC(), nil
	}

	secPart, fracPart, _ := strings.Cut(v, ".")
	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %s is neither RFC3339 nor epoch seconds", v)
	}
	var nsec int64
	if fracPart != "" {
		if len(fracPart) > 9 {
			fracPart = fracPart[:9]
		}
		nsec, err = strconv.ParseInt(fracPart+strings.Repeat("0", 9-len(fracPart)), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("timestamp %s is neither RFC3339 nor epoch seconds", v)
		}
	}
	return time.Unix(sec, nsec).UTC(), nil
}
