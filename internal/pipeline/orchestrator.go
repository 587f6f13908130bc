// Package pipeline wires the differ, gate, grouper, queue, and deliverer into
// the per-sync-cycle producer path and the queue-draining consumer loops.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sellerpulse/notify-core/internal/differ"
	"github.com/sellerpulse/notify-core/internal/domain"
	"github.com/sellerpulse/notify-core/internal/gate"
	"github.com/sellerpulse/notify-core/internal/grouper"
	"github.com/sellerpulse/notify-core/internal/queue"
	"github.com/sellerpulse/notify-core/internal/settings"
)

// ProducerHooks carries the metric callbacks injected by main. Keeping them
// as plain funcs keeps the orchestrator metrics-agnostic.
type ProducerHooks struct {
	OnDetected func(entityType domain.EntityType)
	OnQueued   func(typ domain.EventType)
}

// Summary is what one pipeline pass reports back to the sync adapter.
// Per-event failures are aggregated here, never raised: one bad event must
// not abort the batch.
type Summary struct {
	EventsProcessed   int      `json:"events_processed"`
	NotificationsSent int      `json:"notifications_sent"`
	Errors            []string `json:"errors,omitempty"`
}

// Orchestrator is the single entry point called once per sync cycle per
// user/cabinet. The producer path (diff → filter → group → enqueue) runs
// synchronously and never blocks on delivery.
type Orchestrator struct {
	differ   *differ.Differ
	gate     *gate.Gate
	settings settings.Store
	q        *queue.PriorityQueue
	logger   *zap.Logger
	hooks    ProducerHooks
}

func NewOrchestrator(
	d *differ.Differ,
	g *gate.Gate,
	st settings.Store,
	q *queue.PriorityQueue,
	logger *zap.Logger,
	hooks ProducerHooks,
) *Orchestrator {
	if hooks.OnDetected == nil {
		hooks.OnDetected = func(domain.EntityType) {}
	}
	if hooks.OnQueued == nil {
		hooks.OnQueued = func(domain.EventType) {}
	}
	return &Orchestrator{differ: d, gate: g, settings: st, q: q, logger: logger, hooks: hooks}
}

// ProcessSyncEvents runs one pipeline pass over a snapshot batch.
// An unknown user short-circuits with an empty summary. All pending groups
// are flushed before returning; grouping never spans passes.
func (o *Orchestrator) ProcessSyncEvents(ctx context.Context, userID int64, cabinetID string, batch domain.SyncBatch) Summary {
	log := o.logger.With(zap.Int64("user_id", userID), zap.String("cabinet_id", cabinetID))

	cfg, err := o.settings.GetUserSettings(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Debug("no settings for user, skipping batch")
			return Summary{}
		}
		log.Error("settings lookup failed", zap.Error(err))
		return Summary{Errors: []string{fmt.Sprintf("settings lookup: %v", err)}}
	}

	events := o.differ.Diff(userID, cabinetID, batch)
	for _, ev := range events {
		o.hooks.OnDetected(ev.EntityType)
	}

	enabled := o.gate.Filter(events, cfg)

	var summary Summary
	summary.EventsProcessed = len(enabled)

	grp := grouper.New(cfg)
	for _, ev := range enabled {
		if n := grp.Absorb(ev); n != nil {
			o.enqueue(ctx, n, &summary, log)
		}
	}
	for _, n := range grp.FlushAll() {
		o.enqueue(ctx, n, &summary, log)
	}

	log.Info("sync batch processed",
		zap.Int("events_detected", len(events)),
		zap.Int("events_processed", summary.EventsProcessed),
		zap.Int("notifications_sent", summary.NotificationsSent),
		zap.Int("errors", len(summary.Errors)),
	)
	return summary
}

func (o *Orchestrator) enqueue(ctx context.Context, n *domain.Notification, summary *Summary, log *zap.Logger) {
	err := o.q.Enqueue(ctx, n)
	switch {
	case err == nil:
		summary.NotificationsSent++
		o.hooks.OnQueued(n.Type)
	case errors.Is(err, domain.ErrDuplicate):
		// Same logical change already queued within the grouping window.
		log.Debug("duplicate notification suppressed",
			zap.String("type", string(n.Type)),
			zap.String("dedup_key", n.DedupKey),
		)
	default:
		log.Warn("enqueue failed", zap.String("notification_id", n.ID), zap.Error(err))
		summary.Errors = append(summary.Errors, fmt.Sprintf("enqueue %s: %v", n.Type, err))
	}
}
