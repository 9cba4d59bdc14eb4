package kafka

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/carsonjc04/Hive-Engine/internal/events"
	"github.com/carsonjc04/Hive-Engine/internal/messaging"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	groupID string
	msgs    chan kafkago.Message

	mu        sync.Mutex
	committed []kafkago.Message
	closed    bool
}

func newFakeReader(groupID string, msgs ...kafkago.Message) *fakeReader {
	r := &fakeReader{groupID: groupID, msgs: make(chan kafkago.Message, len(msgs))}
	for _, m := range msgs {
		r.msgs <- m
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	select {
	case <-ctx.Done():
		return kafkago.Message{}, ctx.Err()
	case m := <-r.msgs:
		return m, nil
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) Committed() []kafkago.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]kafkago.Message, len(r.committed))
	copy(out, r.committed)
	return out
}

func (r *fakeReader) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

type fakeWriter struct {
	mu       sync.Mutex
	failures int
	written  []kafkago.Message
	calls    int
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.failures != 0 {
		if w.failures > 0 {
			w.failures--
		}
		return kafkago.LeaderNotAvailable
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Written() []kafkago.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]kafkago.Message, len(w.written))
	copy(out, w.written)
	return out
}

func terminatedMessage(t *testing.T, id string, employeeID int64, offset int64) kafkago.Message {
	t.Helper()
	env, err := messaging.NewEnvelope(id, events.NewTerminatedEvent(employeeID, time.Now()))
	require.NoError(t, err)
	msg := toMessage(events.EmployeeLifecycleTopic, env)
	msg.Offset = offset
	return msg
}

func headerValue(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
