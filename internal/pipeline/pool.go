package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sellerpulse/notify-core/internal/queue"
	"github.com/sellerpulse/notify-core/internal/webhook"
)

// ConsumerPool manages the lifecycle of all consumers. They share one queue
// and one rate limiter, so total outbound throughput stays bounded no matter
// how many consumers run.
type ConsumerPool struct {
	consumers []*Consumer
	wg        sync.WaitGroup
}

func NewConsumerPool(
	n int,
	q *queue.PriorityQueue,
	deliverer *webhook.Deliverer,
	limiter *rate.Limiter,
	opts ConsumerOptions,
	logger *zap.Logger,
	hooks ConsumerHooks,
) *ConsumerPool {
	consumers := make([]*Consumer, n)
	for i := range consumers {
		consumers[i] = NewConsumer(i, q, deliverer, limiter, opts, logger, hooks)
	}
	return &ConsumerPool{consumers: consumers}
}

// Start launches all consumers as goroutines. Cancelling ctx triggers a
// graceful shutdown of the entire pool.
func (p *ConsumerPool) Start(ctx context.Context) {
	for _, c := range p.consumers {
		p.wg.Add(1)
		go func(c *Consumer) {
			defer p.wg.Done()
			c.Run(ctx)
		}(c)
	}
}

// Wait blocks until every consumer has returned after ctx is cancelled.
// Call this after cancelling the context so in-flight deliveries finish.
func (p *ConsumerPool) Wait() {
	p.wg.Wait()
}
