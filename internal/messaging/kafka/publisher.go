package kafka

import (
	"context"
	"time"

	"github.com/carsonjc04/Hive-Engine/internal/messaging"
	"github.com/carsonjc04/Hive-Engine/internal/shared/apperror"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	defaultWriteTimeout = 10 * time.Second
	defaultWriteRetries = 3
)

// Publisher writes envelopes to Kafka. Every attempt is bounded by a timeout
// and retried with exponential backoff; when retries run out the caller gets
// apperror.ErrPublishUnavailable and still owns the event.
type Publisher struct {
	writer       MessageWriter
	writeTimeout time.Duration
	maxRetries   uint64
	retryInitial time.Duration
	logger       *zap.Logger
}

type PublisherOption func(*Publisher)

func WithWriteTimeout(d time.Duration) PublisherOption {
	return func(p *Publisher) {
		if d > 0 {
			p.writeTimeout = d
		}
	}
}

func WithWriteRetries(n uint64, initial time.Duration) PublisherOption {
	return func(p *Publisher) {
		p.maxRetries = n
		if initial > 0 {
			p.retryInitial = initial
		}
	}
}

func WithPublisherLogger(l *zap.Logger) PublisherOption {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l.Named("kafka.publisher")
		}
	}
}

func NewPublisher(writer MessageWriter, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		writer:       writer,
		writeTimeout: defaultWriteTimeout,
		maxRetries:   defaultWriteRetries,
		retryInitial: 200 * time.Millisecond,
		logger:       zap.L().Named("kafka.publisher"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Publish(ctx context.Context, topic string, env messaging.Envelope) error {
	msg := toMessage(topic, env)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.retryInitial
	b.MaxElapsedTime = 0
	b.Reset()

	attempts := 0
	err := backoff.RetryNotify(func() error {
		attempts++
		wctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
		defer cancel()
		return p.writer.WriteMessages(wctx, msg)
	}, backoff.WithContext(backoff.WithMaxRetries(b, p.maxRetries), ctx), func(err error, wait time.Duration) {
		p.logger.Warn("kafka write failed, retrying",
			zap.String("topic", topic),
			zap.String("event_id", env.ID),
			zap.Int("attempt", attempts),
			zap.Duration("retry_in", wait),
			zap.Error(err),
		)
	})
	if err != nil {
		p.logger.Error("kafka publish unavailable",
			zap.String("topic", topic),
			zap.String("event_id", env.ID),
			zap.String("routing_key", env.RoutingKey),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return apperror.WrapAs(apperror.ErrPublishUnavailable, err)
	}

	p.logger.Debug("kafka publish acknowledged",
		zap.String("topic", topic),
		zap.String("event_id", env.ID),
		zap.String("routing_key", env.RoutingKey),
	)
	return nil
}
