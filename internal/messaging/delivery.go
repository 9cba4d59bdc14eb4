package messaging

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/carsonjc04/Hive-Engine/internal/events"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

type Outcome int

const (
	// OutcomeAcked: the handler completed; acknowledge.
	OutcomeAcked Outcome = iota
	// OutcomeSkipped: routing key outside the subscription pattern; acknowledge.
	OutcomeSkipped
	// OutcomeDuplicate: inbox says this subscription already handled it; acknowledge.
	OutcomeDuplicate
	// OutcomeDeadLettered: retries exhausted or payload undecodable; route to
	// the dead-letter destination, then acknowledge.
	OutcomeDeadLettered
	// OutcomeAbandoned: shutdown interrupted processing; do not acknowledge.
	OutcomeAbandoned
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAcked:
		return "acked"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeDeadLettered:
		return "dead_lettered"
	case OutcomeAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Acknowledge reports whether the transport may commit the message.
// Dead-lettered messages are committed only after the dead-letter write.
func (o Outcome) Acknowledge() bool {
	return o == OutcomeAcked || o == OutcomeSkipped || o == OutcomeDuplicate
}

type DeliveryResult struct {
	Outcome  Outcome
	Attempts int
	Err      error
}

type DeliveryPolicy struct {
	// MaxDeliveries bounds handler attempts per message; 0 means unbounded.
	MaxDeliveries  int
	HandlerTimeout time.Duration
	RetryInitial   time.Duration
	RetryMax       time.Duration
}

func DefaultDeliveryPolicy() DeliveryPolicy {
	return DeliveryPolicy{
		MaxDeliveries:  10,
		HandlerTimeout: 30 * time.Second,
		RetryInitial:   500 * time.Millisecond,
		RetryMax:       30 * time.Second,
	}
}

func (p DeliveryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.RetryInitial > 0 {
		b.InitialInterval = p.RetryInitial
	}
	if p.RetryMax > 0 {
		b.MaxInterval = p.RetryMax
	}
	b.MaxElapsedTime = 0
	b.Reset()

	var bo backoff.BackOff = b
	if p.MaxDeliveries > 0 {
		bo = backoff.WithMaxRetries(b, uint64(p.MaxDeliveries-1))
	}
	return backoff.WithContext(bo, ctx)
}

// Deliverer runs one subscription's handler against incoming envelopes.
// Transports own fetching, committing and dead-letter writes; everything in
// between lives here so every transport gets the same guarantees.
type Deliverer struct {
	sub     Subscription
	policy  DeliveryPolicy
	inbox   Inbox
	metrics *Metrics
	logger  *zap.Logger
}

type DelivererOption func(*Deliverer)

func WithInbox(inbox Inbox) DelivererOption {
	return func(d *Deliverer) {
		if inbox != nil {
			d.inbox = inbox
		}
	}
}

func WithMetrics(m *Metrics) DelivererOption {
	return func(d *Deliverer) {
		d.metrics = m
	}
}

func WithLogger(l *zap.Logger) DelivererOption {
	return func(d *Deliverer) {
		if l != nil {
			d.logger = l
		}
	}
}

func NewDeliverer(sub Subscription, policy DeliveryPolicy, opts ...DelivererOption) *Deliverer {
	d := &Deliverer{
		sub:    sub,
		policy: policy,
		inbox:  NewNoopInbox(),
		logger: zap.L(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.Named("messaging.delivery").With(
		zap.String("subscription", sub.Name),
		zap.String("pattern", sub.Pattern),
	)
	return d
}

func (d *Deliverer) Subscription() Subscription {
	return d.sub
}

func (d *Deliverer) Deliver(ctx context.Context, env Envelope) DeliveryResult {
	res := d.deliver(ctx, env)
	d.metrics.observeOutcome(d.sub.Name, res.Outcome)
	return res
}

func (d *Deliverer) deliver(ctx context.Context, env Envelope) DeliveryResult {
	log := d.logger.With(zap.String("event_id", env.ID))

	event, err := events.Decode(env.Payload)
	if err != nil {
		log.Error("undecodable event, dead-lettering", zap.Error(err))
		return DeliveryResult{Outcome: OutcomeDeadLettered, Err: err}
	}

	routingKey := env.RoutingKey
	if routingKey == "" {
		routingKey = event.RoutingKey()
	}
	if !Match(d.sub.Pattern, routingKey) {
		log.Debug("routing key outside subscription pattern", zap.String("routing_key", routingKey))
		return DeliveryResult{Outcome: OutcomeSkipped}
	}

	log = log.With(
		zap.String("event_type", event.Type),
		zap.Int64("employee_id", event.EmployeeID),
	)

	if env.ID != "" {
		seen, err := d.inbox.Processed(ctx, d.sub.Name, env.ID)
		if err != nil {
			log.Warn("inbox lookup failed, processing anyway", zap.Error(err))
		} else if seen {
			log.Info("event already processed by subscription, acknowledging")
			return DeliveryResult{Outcome: OutcomeDuplicate}
		}
	}

	attempts := 0
	err = backoff.RetryNotify(func() error {
		attempts++
		return d.invoke(ctx, event)
	}, d.policy.backOff(ctx), func(err error, wait time.Duration) {
		log.Warn("handler failed, redelivering",
			zap.Int("attempt", attempts),
			zap.Duration("retry_in", wait),
			zap.Error(err),
		)
	})

	if err != nil {
		if ctx.Err() != nil {
			log.Info("delivery abandoned on shutdown, leaving unacknowledged", zap.Int("attempts", attempts))
			return DeliveryResult{Outcome: OutcomeAbandoned, Attempts: attempts, Err: ctx.Err()}
		}

		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Err
		}
		log.Error("handler exhausted deliveries, dead-lettering",
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return DeliveryResult{Outcome: OutcomeDeadLettered, Attempts: attempts, Err: err}
	}

	if env.ID != "" {
		if err := d.inbox.MarkProcessed(ctx, d.sub.Name, env.ID); err != nil {
			log.Warn("inbox mark failed", zap.Error(err))
		}
	}

	log.Info("event processed", zap.Int("attempts", attempts))
	return DeliveryResult{Outcome: OutcomeAcked, Attempts: attempts}
}

func (d *Deliverer) invoke(ctx context.Context, event events.EmployeeEvent) error {
	hctx := ctx
	if d.policy.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, d.policy.HandlerTimeout)
		defer cancel()
	}

	start := time.Now()
	err := d.sub.Handler(hctx, event)
	d.metrics.observeDuration(d.sub.Name, time.Since(start).Seconds())
	if err != nil {
		d.metrics.observeFailure(d.sub.Name)
	}
	return err
}

// DeadLetterEnvelope copies env and annotates it with why and where it failed.
func DeadLetterEnvelope(env Envelope, subscription string, res DeliveryResult) Envelope {
	headers := make(map[string]string, len(env.Headers)+3)
	for k, v := range env.Headers {
		headers[k] = v
	}
	headers[HeaderDeadLetterSubscription] = subscription
	headers[HeaderDeadLetterAttempts] = strconv.Itoa(res.Attempts)
	if res.Err != nil {
		headers[HeaderDeadLetterError] = res.Err.Error()
	}

	out := env
	out.Headers = headers
	return out
}
