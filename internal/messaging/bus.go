// Package messaging defines the event bus contract shared by every transport:
// envelopes, publishers, pattern subscriptions and the delivery plumbing that
// turns at-least-once delivery into acknowledged, retried or dead-lettered work.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/carsonjc04/Hive-Engine/internal/events"

	"github.com/google/uuid"
)

const (
	HeaderEventID       = "event_id"
	HeaderEventType     = "event_type"
	HeaderRoutingKey    = "routing_key"
	HeaderAggregateType = "aggregate_type"

	HeaderDeadLetterSubscription = "dlq_subscription"
	HeaderDeadLetterError        = "dlq_error"
	HeaderDeadLetterAttempts     = "dlq_attempts"

	AggregateEmployee = "employee"
)

// Envelope is one message on the bus. Payload holds the encoded event; the
// remaining fields are transport metadata.
type Envelope struct {
	ID         string
	RoutingKey string
	Key        string
	Payload    []byte
	Headers    map[string]string
}

func NewEnvelope(id string, event events.EmployeeEvent) (Envelope, error) {
	payload, err := events.Encode(event)
	if err != nil {
		return Envelope{}, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	return Envelope{
		ID:         id,
		RoutingKey: event.RoutingKey(),
		Key:        strconv.FormatInt(event.EmployeeID, 10),
		Payload:    payload,
		Headers: map[string]string{
			HeaderEventType:     event.Type,
			HeaderAggregateType: AggregateEmployee,
		},
	}, nil
}

// Publisher returns once the broker has durably accepted the envelope, not
// once consumers have processed it.
type Publisher interface {
	Publish(ctx context.Context, topic string, env Envelope) error
}

// Handler reacts to one event. Returning an error means "do not acknowledge".
type Handler func(ctx context.Context, event events.EmployeeEvent) error

// Subscriber registers named subscriptions. Every name gets its own full copy
// of each matching event.
type Subscriber interface {
	Subscribe(name, pattern string, handler Handler) error
	Run(ctx context.Context) error
	Close() error
}

type Bus interface {
	Publisher
	Subscriber
}

// PublishEvent wraps event in a fresh envelope and publishes it on topic.
func PublishEvent(ctx context.Context, p Publisher, topic string, event events.EmployeeEvent) error {
	env, err := NewEnvelope("", event)
	if err != nil {
		return err
	}
	return p.Publish(ctx, topic, env)
}

var (
	ErrDuplicateSubscription = errors.New("subscription already registered")
	ErrNoSubscriptions       = errors.New("no subscriptions registered")
)

type Subscription struct {
	Name    string
	Pattern string
	Handler Handler
}

// Registry is the subscription table transports embed.
type Registry struct {
	mu   sync.Mutex
	subs []Subscription
}

func (r *Registry) Add(name, pattern string, handler Handler) error {
	if name == "" {
		return errors.New("subscription name is required")
	}
	if handler == nil {
		return fmt.Errorf("subscription %q: handler is required", name)
	}
	if err := ValidatePattern(pattern); err != nil {
		return fmt.Errorf("subscription %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.Name == name {
			return fmt.Errorf("%w: %s", ErrDuplicateSubscription, name)
		}
	}
	r.subs = append(r.subs, Subscription{Name: name, Pattern: pattern, Handler: handler})
	return nil
}

func (r *Registry) All() []Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Subscription, len(r.subs))
	copy(out, r.subs)
	return out
}
