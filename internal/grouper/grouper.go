// Package grouper buffers same-type events for one user and merges bursts
// into a single notification.
package grouper

import (
	"time"

	"github.com/google/uuid"

	"github.com/sellerpulse/notify-core/internal/domain"
	"github.com/sellerpulse/notify-core/internal/gate"
)

type pendingGroup struct {
	events []gate.EnabledEvent
	first  time.Time
}

// Grouper accumulates events per notification category. One instance serves
// one user for one pipeline pass; groups never survive a pass — the
// orchestrator calls FlushAll before returning, so cross-cycle buffering does
// not happen by construction.
type Grouper struct {
	settings domain.NotificationSettings
	pending  map[domain.EventType]*pendingGroup
	order    []domain.EventType
	now      func() time.Time
}

func New(settings domain.NotificationSettings) *Grouper {
	return NewWithClock(settings, time.Now)
}

func NewWithClock(settings domain.NotificationSettings, now func() time.Time) *Grouper {
	return &Grouper{
		settings: settings,
		pending:  make(map[domain.EventType]*pendingGroup),
		now:      now,
	}
}

// Absorb takes one enabled event and returns at most one flushed
// notification. With grouping disabled every event becomes its own
// notification immediately. With grouping enabled the event joins its
// category's pending group; if that group is already full or older than the
// group timeout it is flushed first and the incoming event seeds the next
// group — a size-triggered flush never swallows the event that caused it.
func (g *Grouper) Absorb(ev gate.EnabledEvent) *domain.Notification {
	if !g.settings.GroupingEnabled {
		return g.single(ev)
	}

	pg, ok := g.pending[ev.Type]
	if !ok {
		g.pending[ev.Type] = &pendingGroup{events: []gate.EnabledEvent{ev}, first: ev.DetectedAt}
		g.order = append(g.order, ev.Type)
		return nil
	}

	timeout := time.Duration(g.settings.GroupTimeoutSeconds) * time.Second
	if len(pg.events) >= g.settings.MaxGroupSize || (timeout > 0 && g.now().Sub(pg.first) >= timeout) {
		flushed := g.flush(ev.Type, pg)
		// ev.Type is already registered in g.order from the first group.
		g.pending[ev.Type] = &pendingGroup{events: []gate.EnabledEvent{ev}, first: ev.DetectedAt}
		return flushed
	}

	pg.events = append(pg.events, ev)
	return nil
}

// FlushAll emits every remaining pending group in absorption order.
func (g *Grouper) FlushAll() []*domain.Notification {
	var out []*domain.Notification
	for _, typ := range g.order {
		pg, ok := g.pending[typ]
		if !ok || len(pg.events) == 0 {
			continue
		}
		out = append(out, g.flush(typ, pg))
	}
	return out
}

func (g *Grouper) single(ev gate.EnabledEvent) *domain.Notification {
	return &domain.Notification{
		ID:       uuid.New().String(),
		UserID:   ev.UserID,
		Type:     ev.Type,
		Priority: ev.Priority,
		Payload: map[string]any{
			"entity_type": string(ev.EntityType),
			"entity_id":   ev.EntityID,
			"change_kind": string(ev.ChangeKind),
			"before":      ev.Before,
			"after":       ev.After,
			"cabinet_id":  ev.CabinetID,
		},
		DedupKey:  domain.DedupKey(ev.UserID, ev.EntityType, ev.EntityID, ev.ChangeKind),
		CreatedAt: g.now().UTC(),
	}
}

// flush merges a group into one notification. The payload aggregates a count
// plus a short summary per underlying event.
func (g *Grouper) flush(typ domain.EventType, pg *pendingGroup) *domain.Notification {
	delete(g.pending, typ)

	first := pg.events[0]
	summaries := make([]map[string]any, len(pg.events))
	for i, ev := range pg.events {
		summaries[i] = map[string]any{
			"entity_id":   ev.EntityID,
			"change_kind": string(ev.ChangeKind),
			"after":       ev.After,
		}
	}

	return &domain.Notification{
		ID:       uuid.New().String(),
		UserID:   first.UserID,
		Type:     typ,
		Priority: first.Priority,
		Payload: map[string]any{
			"count":      len(pg.events),
			"events":     summaries,
			"cabinet_id": first.CabinetID,
		},
		DedupKey:  domain.GroupDedupKey(first.UserID, typ, first.EntityID),
		CreatedAt: g.now().UTC(),
	}
}
