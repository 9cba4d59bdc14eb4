package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/carsonjc04/Hive-Engine/internal/messaging"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const fetchRetryDelay = time.Second

type SubscriberConfig struct {
	Brokers         []string
	Topic           string
	GroupPrefix     string
	DeadLetterTopic string
	Policy          messaging.DeliveryPolicy
}

// ReaderFactory builds the reader for one consumer group.
type ReaderFactory func(cfg SubscriberConfig, groupID string) (MessageReader, error)

func NewKafkaReader(cfg SubscriberConfig, groupID string) (MessageReader, error) {
	rc := kafkago.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        groupID,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
		MaxWait:        time.Second,
	}
	if err := rc.Validate(); err != nil {
		return nil, fmt.Errorf("kafka reader %s: %w", groupID, err)
	}
	return kafkago.NewReader(rc), nil
}

// Subscriber gives every named subscription its own consumer group, so each
// one receives a full copy of the topic. Offsets are committed only after the
// delivery outcome allows it.
type Subscriber struct {
	messaging.Registry

	cfg         SubscriberConfig
	deadLetters messaging.Publisher
	newReader   ReaderFactory
	inbox       messaging.Inbox
	metrics     *messaging.Metrics
	logger      *zap.Logger

	mu      sync.Mutex
	readers map[MessageReader]struct{}
	closed  bool
}

type SubscriberOption func(*Subscriber)

func WithReaderFactory(f ReaderFactory) SubscriberOption {
	return func(s *Subscriber) {
		s.newReader = f
	}
}

func WithInbox(inbox messaging.Inbox) SubscriberOption {
	return func(s *Subscriber) {
		s.inbox = inbox
	}
}

func WithMetrics(m *messaging.Metrics) SubscriberOption {
	return func(s *Subscriber) {
		s.metrics = m
	}
}

func WithSubscriberLogger(l *zap.Logger) SubscriberOption {
	return func(s *Subscriber) {
		if l != nil {
			s.logger = l.Named("kafka.subscriber")
		}
	}
}

// NewSubscriber needs deadLetters to park messages that exhausted their
// deliveries; they are never discarded.
func NewSubscriber(cfg SubscriberConfig, deadLetters messaging.Publisher, opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{
		cfg:         cfg,
		deadLetters: deadLetters,
		newReader:   NewKafkaReader,
		inbox:       messaging.NewNoopInbox(),
		logger:      zap.L().Named("kafka.subscriber"),
		readers:     make(map[MessageReader]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Subscriber) Subscribe(name, pattern string, handler messaging.Handler) error {
	return s.Add(name, pattern, handler)
}

func (s *Subscriber) GroupID(subscription string) string {
	if s.cfg.GroupPrefix == "" {
		return subscription
	}
	return s.cfg.GroupPrefix + "-" + subscription
}

// Run blocks until ctx is cancelled or a subscription fails to start.
func (s *Subscriber) Run(ctx context.Context) error {
	subs := s.All()
	if len(subs) == 0 {
		return messaging.ErrNoSubscriptions
	}
	if s.deadLetters == nil {
		return errors.New("kafka subscriber: dead-letter publisher is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, sub := range subs {
		reader, err := s.open(s.GroupID(sub.Name))
		if err != nil {
			// Stop the subscriptions already started before reporting.
			cancel()
			_ = g.Wait()
			return err
		}
		d := messaging.NewDeliverer(sub, s.cfg.Policy,
			messaging.WithInbox(s.inbox),
			messaging.WithMetrics(s.metrics),
			messaging.WithLogger(s.logger),
		)
		g.Go(func() error {
			return s.consume(gctx, reader, d)
		})
	}
	return g.Wait()
}

func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true

	var errs []error
	for r := range s.readers {
		errs = append(errs, r.Close())
		delete(s.readers, r)
	}
	return errors.Join(errs...)
}

func (s *Subscriber) open(groupID string) (MessageReader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("kafka subscriber is closed")
	}
	r, err := s.newReader(s.cfg, groupID)
	if err != nil {
		return nil, err
	}
	s.readers[r] = struct{}{}
	return r, nil
}

func (s *Subscriber) release(r MessageReader) {
	s.mu.Lock()
	_, open := s.readers[r]
	delete(s.readers, r)
	s.mu.Unlock()

	if open {
		if err := r.Close(); err != nil {
			s.logger.Warn("close reader failed", zap.Error(err))
		}
	}
}

func (s *Subscriber) consume(ctx context.Context, reader MessageReader, d *messaging.Deliverer) error {
	sub := d.Subscription()
	log := s.logger.With(
		zap.String("subscription", sub.Name),
		zap.String("group_id", s.GroupID(sub.Name)),
	)
	defer s.release(reader)

	log.Info("subscription started", zap.String("topic", s.cfg.Topic), zap.String("pattern", sub.Pattern))

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("subscription stopped")
				return nil
			}
			log.Error("fetch message failed", zap.Error(err))
			if !sleep(ctx, fetchRetryDelay) {
				return nil
			}
			continue
		}

		env := fromMessage(msg)
		res := d.Deliver(ctx, env)

		switch res.Outcome {
		case messaging.OutcomeAbandoned:
			log.Info("subscription stopped with message in flight",
				zap.String("event_id", env.ID),
				zap.Int64("offset", msg.Offset),
			)
			return nil
		case messaging.OutcomeDeadLettered:
			if err := s.deadLetter(ctx, sub.Name, env, res); err != nil {
				log.Info("subscription stopped before dead-letter write", zap.String("event_id", env.ID))
				return nil
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// Redelivered after a rebalance or restart; handlers are idempotent.
			log.Error("commit message failed",
				zap.String("event_id", env.ID),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

// deadLetter keeps trying until the write succeeds or ctx ends: committing
// past an unparked message would lose it.
func (s *Subscriber) deadLetter(ctx context.Context, subscription string, env messaging.Envelope, res messaging.DeliveryResult) error {
	dlq := messaging.DeadLetterEnvelope(env, subscription, res)

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.RetryNotify(func() error {
		return s.deadLetters.Publish(ctx, s.cfg.DeadLetterTopic, dlq)
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		s.logger.Error("dead-letter write failed, retrying",
			zap.String("subscription", subscription),
			zap.String("event_id", env.ID),
			zap.Duration("retry_in", wait),
			zap.Error(err),
		)
	})
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
