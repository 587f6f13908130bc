package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sellerpulse/notify-core/internal/domain"
	"github.com/sellerpulse/notify-core/internal/queue"
	"github.com/sellerpulse/notify-core/internal/webhook"
)

// ConsumerHooks carries the metric callbacks for the delivery side.
type ConsumerHooks struct {
	OnDelivered func(typ domain.EventType, latency time.Duration)
	OnFailed    func(typ domain.EventType)
	OnSkipped   func(typ domain.EventType)
}

// ConsumerOptions bound one drain round.
type ConsumerOptions struct {
	EndpointURL string
	// PollTimeout caps each blocking dequeue.
	PollTimeout time.Duration
	// MaxItems and MaxProcessingTime bound one drain round, whichever first.
	// This limits worst-case loop latency, not queue depth.
	MaxItems          int
	MaxProcessingTime time.Duration
}

// Consumer is a single goroutine that pulls notifications off the priority
// queue and hands them to the webhook deliverer.
//
// Delivery is at-most-once: the pop is destructive, so a crash between
// dequeue and delivery loses that notification. A failed item is not
// re-queued; the next sync cycle re-detects the underlying change.
type Consumer struct {
	id        int
	q         *queue.PriorityQueue
	deliverer *webhook.Deliverer
	limiter   *rate.Limiter
	opts      ConsumerOptions
	logger    *zap.Logger
	hooks     ConsumerHooks
}

// NewConsumer constructs a consumer. limiter may be nil (no rate limiting);
// hook fields may be nil (no-op).
func NewConsumer(
	id int,
	q *queue.PriorityQueue,
	deliverer *webhook.Deliverer,
	limiter *rate.Limiter,
	opts ConsumerOptions,
	logger *zap.Logger,
	hooks ConsumerHooks,
) *Consumer {
	if hooks.OnDelivered == nil {
		hooks.OnDelivered = func(domain.EventType, time.Duration) {}
	}
	if hooks.OnFailed == nil {
		hooks.OnFailed = func(domain.EventType) {}
	}
	if hooks.OnSkipped == nil {
		hooks.OnSkipped = func(domain.EventType) {}
	}
	return &Consumer{
		id: id, q: q, deliverer: deliverer, limiter: limiter,
		opts: opts, logger: logger.With(zap.Int("consumer_id", id)), hooks: hooks,
	}
}

// Run blocks until ctx is cancelled, draining the queue in bounded rounds.
func (c *Consumer) Run(ctx context.Context) {
	c.logger.Info("consumer started")
	for {
		if err := ctx.Err(); err != nil {
			c.logger.Info("consumer stopping")
			return
		}
		c.Drain(ctx)
	}
}

// Drain processes up to MaxItems notifications or until MaxProcessingTime
// elapses, whichever first, then yields control back to the caller rather
// than holding the queue indefinitely. It returns the number of items
// processed. A single bad item never takes the loop down.
func (c *Consumer) Drain(ctx context.Context) int {
	deadline := time.Now().Add(c.opts.MaxProcessingTime)

	processed := 0
	for processed < c.opts.MaxItems && time.Now().Before(deadline) {
		item, err := c.q.Dequeue(ctx, c.opts.PollTimeout)
		switch {
		case err == nil:
			// fall through to delivery
		case errors.Is(err, domain.ErrQueueEmpty):
			return processed
		case errors.Is(err, domain.ErrSerialization):
			// Already logged and dropped by the queue; keep the counters honest.
			if rerr := c.q.RecordResult(ctx, domain.DeliveryResult{Status: domain.StatusFailed}); rerr != nil {
				c.logger.Error("failed to record dropped item", zap.Error(rerr))
			}
			processed++
			continue
		case ctx.Err() != nil:
			return processed
		default:
			c.logger.Error("dequeue failed", zap.Error(err))
			c.pause(ctx)
			return processed
		}

		c.deliver(ctx, item)
		processed++
	}
	return processed
}

func (c *Consumer) deliver(ctx context.Context, n *domain.Notification) {
	log := c.logger.With(
		zap.String("notification_id", n.ID),
		zap.String("type", string(n.Type)),
		zap.Int64("user_id", n.UserID),
	)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			// ctx cancelled while waiting — consumer is shutting down. The
			// popped item is lost, consistent with at-most-once semantics.
			log.Warn("notification dropped during shutdown")
			return
		}
	}

	start := time.Now()
	res := c.deliverer.Deliver(ctx, n.UserID, n.Type, n.Payload, c.opts.EndpointURL)
	elapsed := time.Since(start)

	if err := c.q.RecordResult(ctx, res); err != nil {
		log.Error("failed to record delivery result", zap.Error(err))
	}

	switch res.Status {
	case domain.StatusDelivered:
		c.hooks.OnDelivered(n.Type, elapsed)
		log.Info("notification delivered", zap.Int("attempts", res.Attempts), zap.Duration("latency", elapsed))
	case domain.StatusSkipped:
		c.hooks.OnSkipped(n.Type)
		log.Debug("notification skipped", zap.Int("attempts", res.Attempts))
	default:
		c.hooks.OnFailed(n.Type)
		// Not re-queued; the next sync cycle re-detects the change.
		log.Warn("notification failed", zap.Int("attempts", res.Attempts), zap.Error(res.Err))
	}
}

// pause backs off briefly after a store error so a degraded store is not
// hammered in a hot loop.
func (c *Consumer) pause(ctx context.Context) {
	timer := time.NewTimer(c.opts.PollTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
