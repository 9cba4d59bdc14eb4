package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/carsonjc04/Hive-Engine/internal/events"
	"github.com/carsonjc04/Hive-Engine/internal/messaging"
	"github.com/carsonjc04/Hive-Engine/internal/shared/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	env, err := messaging.NewEnvelope("evt-1", events.NewTerminatedEvent(101, time.Now()))
	require.NoError(t, err)

	t.Run("success writes headers and key", func(t *testing.T) {
		w := &fakeWriter{}
		p := NewPublisher(w, WithPublisherLogger(zap.NewNop()))

		err := p.Publish(ctx, events.EmployeeLifecycleTopic, env)
		require.NoError(t, err)

		written := w.Written()
		require.Len(t, written, 1)
		assert.Equal(t, events.EmployeeLifecycleTopic, written[0].Topic)
		assert.Equal(t, "101", string(written[0].Key))
		assert.Equal(t, "evt-1", headerValue(written[0], messaging.HeaderEventID))
		assert.Equal(t, "hr.employee.terminated", headerValue(written[0], messaging.HeaderRoutingKey))
		assert.Equal(t, events.EventTypeTerminated, headerValue(written[0], messaging.HeaderEventType))
	})

	t.Run("transient failures are retried", func(t *testing.T) {
		w := &fakeWriter{failures: 2}
		p := NewPublisher(w, WithWriteRetries(3, time.Millisecond), WithPublisherLogger(zap.NewNop()))

		err := p.Publish(ctx, events.EmployeeLifecycleTopic, env)
		require.NoError(t, err)
		assert.Equal(t, 3, w.calls)
		assert.Len(t, w.Written(), 1)
	})

	t.Run("broker unavailable after retries", func(t *testing.T) {
		w := &fakeWriter{failures: -1}
		p := NewPublisher(w,
			WithWriteRetries(2, time.Millisecond),
			WithWriteTimeout(50*time.Millisecond),
			WithPublisherLogger(zap.NewNop()),
		)

		err := p.Publish(ctx, events.EmployeeLifecycleTopic, env)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperror.ErrPublishUnavailable)
		assert.Equal(t, 3, w.calls)
		assert.Empty(t, w.Written())
	})
}

func TestMessageRoundTripKeepsEnvelopeFields(t *testing.T) {
	env, err := messaging.NewEnvelope("evt-9", events.NewTerminatedEvent(7, time.Now()))
	require.NoError(t, err)
	env.Headers["request_id"] = "req-1"

	got := fromMessage(toMessage("topic", env))

	assert.Equal(t, env.ID, got.ID)
	assert.Equal(t, env.RoutingKey, got.RoutingKey)
	assert.Equal(t, env.Key, got.Key)
	assert.Equal(t, env.Payload, got.Payload)
	assert.Equal(t, env.Headers, got.Headers)
}
