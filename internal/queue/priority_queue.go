package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sellerpulse/notify-core/internal/cache"
	"github.com/sellerpulse/notify-core/internal/domain"
)

// Redis keys. Three parallel lists, one per priority tier, drained in strict
// priority order by a single multi-key blocking pop.
const (
	keyHigh   = "notify:queue:high"
	keyMedium = "notify:queue:medium"
	keyLow    = "notify:queue:low"

	keyDedupPrefix = "notify:dedup:"

	keyProcessed  = "notify:stats:processed"
	keySuccessful = "notify:stats:successful"
	keyFailed     = "notify:stats:failed"
)

// Stats is the queue snapshot served by the stats endpoint.
type Stats struct {
	QueueSize       int64   `json:"queue_size"`
	TotalProcessed  int64   `json:"total_processed"`
	TotalSuccessful int64   `json:"total_successful"`
	TotalFailed     int64   `json:"total_failed"`
	SuccessRate     float64 `json:"success_rate"`
}

// PriorityQueue is a durable, priority-ordered queue of pending notifications
// backed by the shared store's list primitives.
//
// Dequeue is a destructive pop with no acknowledgment or lease step: a
// consumer crash between pop and delivery permanently loses that item. The
// pipeline is at-most-once end to end.
type PriorityQueue struct {
	store    cache.Store
	dedupTTL time.Duration
	logger   *zap.Logger
}

// New creates a PriorityQueue. dedupTTL bounds the grouping window within
// which a repeated dedup key is rejected.
func New(store cache.Store, dedupTTL time.Duration, logger *zap.Logger) *PriorityQueue {
	return &PriorityQueue{store: store, dedupTTL: dedupTTL, logger: logger}
}

// Enqueue claims the item's dedup key and pushes it onto the bucket matching
// its priority. A duplicate key within the active window returns
// domain.ErrDuplicate and nothing is enqueued. The claim is a single atomic
// add-if-absent, so concurrent producers racing on the same key cannot both
// pass.
func (q *PriorityQueue) Enqueue(ctx context.Context, n *domain.Notification) error {
	claimed, err := q.store.AddIfAbsent(ctx, keyDedupPrefix+n.DedupKey, q.dedupTTL)
	if err != nil {
		return fmt.Errorf("claim dedup key: %w", err)
	}
	if !claimed {
		return domain.ErrDuplicate
	}

	raw, err := encodeItem(n)
	if err != nil {
		return err
	}

	key, err := bucketKey(n.Priority)
	if err != nil {
		return err
	}
	if err := q.store.LPush(ctx, key, raw); err != nil {
		return fmt.Errorf("enqueue notification %s: %w", n.ID, err)
	}
	return nil
}

// Dequeue blocks up to timeout for an item, scanning the high bucket before
// medium before low. Returns domain.ErrQueueEmpty when the timeout expires
// with all buckets empty. An item that fails to decode is logged and dropped
// (it is unrecoverable) and domain.ErrSerialization is returned; the caller's
// loop must treat that as a per-item failure, not a stop signal.
func (q *PriorityQueue) Dequeue(ctx context.Context, timeout time.Duration) (*domain.Notification, error) {
	bucket, raw, err := q.store.BRPop(ctx, timeout, keyHigh, keyMedium, keyLow)
	if errors.Is(err, cache.ErrMiss) {
		return nil, domain.ErrQueueEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue: %w", err)
	}

	n, err := decodeItem(raw)
	if err != nil {
		q.logger.Error("dropping undecodable queue item",
			zap.String("bucket", bucket),
			zap.Error(err),
		)
		return nil, err
	}
	return n, nil
}

// RecordResult updates the delivery counters for one resolved item.
// Skipped outcomes count as processed but neither successful nor failed.
func (q *PriorityQueue) RecordResult(ctx context.Context, res domain.DeliveryResult) error {
	if _, err := q.store.Incr(ctx, keyProcessed); err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	switch res.Status {
	case domain.StatusDelivered:
		if _, err := q.store.Incr(ctx, keySuccessful); err != nil {
			return fmt.Errorf("record result: %w", err)
		}
	case domain.StatusFailed:
		if _, err := q.store.Incr(ctx, keyFailed); err != nil {
			return fmt.Errorf("record result: %w", err)
		}
	}
	return nil
}

// Stats returns current depths and lifetime delivery counters.
func (q *PriorityQueue) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	for _, key := range []string{keyHigh, keyMedium, keyLow} {
		n, err := q.store.LLen(ctx, key)
		if err != nil {
			return Stats{}, fmt.Errorf("queue stats: %w", err)
		}
		s.QueueSize += n
	}

	var err error
	if s.TotalProcessed, err = q.counter(ctx, keyProcessed); err != nil {
		return Stats{}, err
	}
	if s.TotalSuccessful, err = q.counter(ctx, keySuccessful); err != nil {
		return Stats{}, err
	}
	if s.TotalFailed, err = q.counter(ctx, keyFailed); err != nil {
		return Stats{}, err
	}

	if s.TotalProcessed > 0 {
		s.SuccessRate = float64(s.TotalSuccessful) / float64(s.TotalProcessed)
	}
	return s, nil
}

// Clear empties all buckets and resets the counters. Dedup claims are left to
// expire on their own TTL.
func (q *PriorityQueue) Clear(ctx context.Context) error {
	if err := q.store.Del(ctx, keyHigh, keyMedium, keyLow, keyProcessed, keySuccessful, keyFailed); err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}
	return nil
}

// Depths returns the current number of items waiting in each priority tier.
func (q *PriorityQueue) Depths(ctx context.Context) (high, medium, low int64, err error) {
	if high, err = q.store.LLen(ctx, keyHigh); err != nil {
		return 0, 0, 0, fmt.Errorf("queue depths: %w", err)
	}
	if medium, err = q.store.LLen(ctx, keyMedium); err != nil {
		return 0, 0, 0, fmt.Errorf("queue depths: %w", err)
	}
	if low, err = q.store.LLen(ctx, keyLow); err != nil {
		return 0, 0, 0, fmt.Errorf("queue depths: %w", err)
	}
	return high, medium, low, nil
}

func (q *PriorityQueue) counter(ctx context.Context, key string) (int64, error) {
	raw, err := q.store.Get(ctx, key)
	if errors.Is(err, cache.ErrMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read counter %q: %w", key, err)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse counter %q: %w", key, err)
	}
	return n, nil
}

func bucketKey(p domain.Priority) (string, error) {
	switch p {
	case domain.PriorityHigh:
		return keyHigh, nil
	case domain.PriorityMedium:
		return keyMedium, nil
	case domain.PriorityLow:
		return keyLow, nil
	default:
		return "", fmt.Errorf("unknown priority %q", p)
	}
}
