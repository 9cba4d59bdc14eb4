package kafka

import (
	"context"

	"github.com/carsonjc04/Hive-Engine/internal/messaging"

	kafkago "github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafkago.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// MessageReader is the part of *kafkago.Reader a subscription uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

func toMessage(topic string, env messaging.Envelope) kafkago.Message {
	headers := make([]kafkago.Header, 0, len(env.Headers)+2)
	headers = append(headers,
		kafkago.Header{Key: messaging.HeaderEventID, Value: []byte(env.ID)},
		kafkago.Header{Key: messaging.HeaderRoutingKey, Value: []byte(env.RoutingKey)},
	)
	for k, v := range env.Headers {
		if k == messaging.HeaderEventID || k == messaging.HeaderRoutingKey {
			continue
		}
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(v)})
	}

	return kafkago.Message{
		Topic:   topic,
		Key:     []byte(env.Key),
		Value:   env.Payload,
		Headers: headers,
	}
}

func fromMessage(msg kafkago.Message) messaging.Envelope {
	env := messaging.Envelope{
		Key:     string(msg.Key),
		Payload: msg.Value,
		Headers: make(map[string]string, len(msg.Headers)),
	}
	for _, h := range msg.Headers {
		switch h.Key {
		case messaging.HeaderEventID:
			env.ID = string(h.Value)
		case messaging.HeaderRoutingKey:
			env.RoutingKey = string(h.Value)
		default:
			env.Headers[h.Key] = string(h.Value)
		}
	}
	return env
}
