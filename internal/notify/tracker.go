package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/restock/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/restock/internal/detector"
)

// DefaultDedupTTL is how long a transition's mark is kept.
const DefaultDedupTTL = 6 * time.Hour

// Tracker remembers which transitions were already announced. A mark is
// keyed on the sample that changed, so a product that flaps back to the same
// status is announced again. It is best effort and does not make delivery
// exactly-once.
type Tracker interface {
	// MarkNotified records the send and reports whether it is the first
	// for this transition within the tracking window.
	MarkNotified(ctx context.Context, productID int64, d detector.Decision) (bool, error)
	// Forget removes a mark, e.g. after the send failed.
	Forget(ctx context.Context, productID int64, d detector.Decision) error
}

// RedisTracker implements Tracker with SETNX keys that expire.
type RedisTracker struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

var _ Tracker = (*RedisTracker)(nil)

// NewRedisTracker creates a tracker. A non-positive ttl uses DefaultDedupTTL.
func NewRedisTracker(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisTracker {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &RedisTracker{client: client, ttl: ttl, logger: log}
}

func (t *RedisTracker) key(productID int64, d detector.Decision) string {
	return fmt.Sprintf("restock:notified:%d:%d", productID, d.RecordID)
}

func (t *RedisTracker) MarkNotified(ctx context.Context, productID int64, d detector.Decision) (bool, error) {
	key := t.key(productID, d)

	ok, err := t.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), t.ttl).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("mark notified %s: %w", key, err)
	}

	t.logger.Debug("Notification mark",
		logger.String("redis_key", key),
		logger.String("decision", d.Kind.String()),
		logger.Bool("first", ok),
		logger.Duration("ttl", t.ttl),
	)
	return ok, nil
}

func (t *RedisTracker) Forget(ctx context.Context, productID int64, d detector.Decision) error {
	key := t.key(productID, d)
	if err := t.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("forget %s: %w", key, err)
	}
	return nil
}
