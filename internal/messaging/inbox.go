package messaging

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Inbox remembers which events a subscription already handled so redeliveries
// can be acknowledged without touching the record store. Handlers must stay
// idempotent regardless: markers can expire or fail to write.
type Inbox interface {
	Processed(ctx context.Context, subscription, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, subscription, eventID string) error
}

type noopInbox struct{}

func (noopInbox) Processed(context.Context, string, string) (bool, error) { return false, nil }
func (noopInbox) MarkProcessed(context.Context, string, string) error     { return nil }

func NewNoopInbox() Inbox {
	return noopInbox{}
}

const InboxKeyPrefix = "inbox:"

func InboxKey(subscription, eventID string) string {
	return InboxKeyPrefix + subscription + ":" + eventID
}

type redisInbox struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisInbox(rdb *redis.Client, ttl time.Duration) Inbox {
	return &redisInbox{rdb: rdb, ttl: ttl}
}

func (i *redisInbox) Processed(ctx context.Context, subscription, eventID string) (bool, error) {
	n, err := i.rdb.Exists(ctx, InboxKey(subscription, eventID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (i *redisInbox) MarkProcessed(ctx context.Context, subscription, eventID string) error {
	return i.rdb.Set(ctx, InboxKey(subscription, eventID), "1", i.ttl).Err()
}
