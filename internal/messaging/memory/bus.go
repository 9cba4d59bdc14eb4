// Package memory is an in-process messaging.Bus on Watermill's gochannel
// pubsub. It backs local runs and end-to-end tests. Publish returns only
// after every subscription reached a terminal outcome, so a publisher that
// records success afterwards never loses a message to a restart. Dead
// letters are kept in process only.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/carsonjc04/Hive-Engine/internal/messaging"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const metadataKey = "key"

// ErrNotRunning is returned by Publish while no subscription is consuming.
// Nothing is buffered, so the caller must keep the message and retry.
var ErrNotRunning = errors.New("memory bus: subscriptions are not running")

// DeadLetter is a message a subscription gave up on.
type DeadLetter struct {
	Subscription string
	Envelope     messaging.Envelope
	Attempts     int
	Err          error
}

type Bus struct {
	messaging.Registry

	topic   string
	policy  messaging.DeliveryPolicy
	pubsub  *gochannel.GoChannel
	inbox   messaging.Inbox
	metrics *messaging.Metrics
	logger  *zap.Logger

	mu          sync.Mutex
	deadLetters []DeadLetter

	stateMu   sync.RWMutex
	live      <-chan struct{}
	closed    bool
	ready     chan struct{}
	readyOnce sync.Once
}

type Option func(*Bus)

func WithInbox(inbox messaging.Inbox) Option {
	return func(b *Bus) {
		b.inbox = inbox
	}
}

func WithMetrics(m *messaging.Metrics) Option {
	return func(b *Bus) {
		b.metrics = m
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBus delivers everything published on topic to every subscription.
// Publishing before Run has opened the subscriptions fails with ErrNotRunning.
func NewBus(topic string, policy messaging.DeliveryPolicy, opts ...Option) *Bus {
	b := &Bus{
		topic:  topic,
		policy: policy,
		inbox:  messaging.NewNoopInbox(),
		logger: zap.L(),
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.Named("memory.bus")
	b.pubsub = gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            100,
		BlockPublishUntilSubscriberAck: true,
	}, NewZapLoggerAdapter(b.logger))
	return b
}

// Publish blocks until every subscription acked env. An error means the
// message may not have been handled and must be published again.
func (b *Bus) Publish(ctx context.Context, topic string, env messaging.Envelope) error {
	if topic != b.topic {
		return fmt.Errorf("memory bus carries %q, not %q", b.topic, topic)
	}
	live, ok := b.liveness()
	if !ok {
		return ErrNotRunning
	}

	id := env.ID
	if id == "" {
		id = uuid.NewString()
	}
	msg := message.NewMessage(id, env.Payload)
	for k, v := range env.Headers {
		msg.Metadata.Set(k, v)
	}
	msg.Metadata.Set(messaging.HeaderRoutingKey, env.RoutingKey)
	msg.Metadata.Set(metadataKey, env.Key)

	if err := b.pubsub.Publish(topic, msg); err != nil {
		return err
	}

	// gochannel also stops waiting when a subscription shuts down with the
	// message unacked; treat that as not delivered.
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-live:
		return ErrNotRunning
	default:
	}
	if _, ok := b.liveness(); !ok {
		return ErrNotRunning
	}
	return nil
}

// Ready is closed once Run has opened every subscription.
func (b *Bus) Ready() <-chan struct{} {
	return b.ready
}

func (b *Bus) liveness() (<-chan struct{}, bool) {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	if b.closed || b.live == nil {
		return nil, false
	}
	return b.live, true
}

func (b *Bus) Subscribe(name, pattern string, handler messaging.Handler) error {
	return b.Add(name, pattern, handler)
}

// Run consumes until ctx is cancelled.
func (b *Bus) Run(ctx context.Context) error {
	subs := b.All()
	if len(subs) == 0 {
		return messaging.ErrNoSubscriptions
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, sub := range subs {
		msgs, err := b.pubsub.Subscribe(gctx, b.topic)
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		d := messaging.NewDeliverer(sub, b.policy,
			messaging.WithInbox(b.inbox),
			messaging.WithMetrics(b.metrics),
			messaging.WithLogger(b.logger),
		)
		g.Go(func() error {
			b.consume(gctx, msgs, d)
			return nil
		})
	}

	b.stateMu.Lock()
	b.live = gctx.Done()
	b.stateMu.Unlock()
	b.readyOnce.Do(func() { close(b.ready) })

	return g.Wait()
}

func (b *Bus) consume(ctx context.Context, msgs <-chan *message.Message, d *messaging.Deliverer) {
	name := d.Subscription().Name
	for msg := range msgs {
		env := toEnvelope(msg)
		res := d.Deliver(ctx, env)

		switch res.Outcome {
		case messaging.OutcomeAbandoned:
			return
		case messaging.OutcomeDeadLettered:
			b.mu.Lock()
			b.deadLetters = append(b.deadLetters, DeadLetter{
				Subscription: name,
				Envelope:     messaging.DeadLetterEnvelope(env, name, res),
				Attempts:     res.Attempts,
				Err:          res.Err,
			})
			b.mu.Unlock()
		}
		msg.Ack()
	}
}

// DeadLetters returns a snapshot of every dead-lettered message so far.
func (b *Bus) DeadLetters() []DeadLetter {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]DeadLetter, len(b.deadLetters))
	copy(out, b.deadLetters)
	return out
}

func (b *Bus) Close() error {
	b.stateMu.Lock()
	b.closed = true
	b.stateMu.Unlock()

	err := b.pubsub.Close()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func toEnvelope(msg *message.Message) messaging.Envelope {
	env := messaging.Envelope{
		ID:      msg.UUID,
		Payload: msg.Payload,
		Headers: make(map[string]string, len(msg.Metadata)),
	}
	for k, v := range msg.Metadata {
		switch k {
		case messaging.HeaderRoutingKey:
			env.RoutingKey = v
		case metadataKey:
			env.Key = v
		default:
			env.Headers[k] = v
		}
	}
	return env
}
