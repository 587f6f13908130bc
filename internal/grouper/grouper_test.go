package grouper_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/sellerpulse/notify-core/internal/domain"
	"github.com/sellerpulse/notify-core/internal/gate"
	"github.com/sellerpulse/notify-core/internal/grouper"
)

func enabledEvent(typ domain.EventType, entityID string) gate.EnabledEvent {
	return gate.EnabledEvent{
		ChangeEvent: domain.ChangeEvent{
			ID:         "ev-" + entityID,
			EntityType: domain.EntityOrder,
			ChangeKind: domain.ChangeCreated,
			EntityID:   entityID,
			UserID:     42,
			DetectedAt: time.Now().UTC(),
		},
		Type:     typ,
		Priority: domain.PriorityHigh,
	}
}

func TestAbsorb_GroupingDisabledIsOneToOne(t *testing.T) {
	s := domain.DefaultSettings(42)
	s.GroupingEnabled = false
	g := grouper.New(s)

	for i := 0; i < 3; i++ {
		n := g.Absorb(enabledEvent(domain.EventNewOrder, fmt.Sprintf("O%d", i)))
		if n == nil {
			t.Fatalf("event %d: expected immediate notification", i)
		}
		if n.Type != domain.EventNewOrder {
			t.Fatalf("expected new_order, got %s", n.Type)
		}
	}
	if rest := g.FlushAll(); len(rest) != 0 {
		t.Fatalf("expected nothing pending, got %d", len(rest))
	}
}

func TestAbsorb_BurstMergesIntoOneGroup(t *testing.T) {
	s := domain.DefaultSettings(42)
	s.GroupingEnabled = true
	s.MaxGroupSize = 5
	g := grouper.New(s)

	for i := 0; i < 3; i++ {
		if n := g.Absorb(enabledEvent(domain.EventNewOrder, fmt.Sprintf("O%d", i))); n != nil {
			t.Fatalf("event %d: expected buffering, got a notification", i)
		}
	}

	flushed := g.FlushAll()
	if len(flushed) != 1 {
		t.Fatalf("expected 1 grouped notification, got %d", len(flushed))
	}
	if flushed[0].Payload["count"] != 3 {
		t.Fatalf("expected count=3, got %v", flushed[0].Payload["count"])
	}
}

// The event that overflows a full group belongs to the next group, not the
// flushed one.
func TestAbsorb_SizeFlushKeepsOverflowEvent(t *testing.T) {
	s := domain.DefaultSettings(42)
	s.GroupingEnabled = true
	s.MaxGroupSize = 2
	g := grouper.New(s)

	if n := g.Absorb(enabledEvent(domain.EventNewOrder, "O1")); n != nil {
		t.Fatal("first event should buffer")
	}
	if n := g.Absorb(enabledEvent(domain.EventNewOrder, "O2")); n != nil {
		t.Fatal("second event should buffer")
	}

	flushed := g.Absorb(enabledEvent(domain.EventNewOrder, "O3"))
	if flushed == nil {
		t.Fatal("third event should trigger a size flush")
	}
	if flushed.Payload["count"] != 2 {
		t.Fatalf("flushed group should hold 2 events, got %v", flushed.Payload["count"])
	}

	rest := g.FlushAll()
	if len(rest) != 1 {
		t.Fatalf("expected the overflow event in a new group, got %d groups", len(rest))
	}
	if rest[0].Payload["count"] != 1 {
		t.Fatalf("next group should hold 1 event, got %v", rest[0].Payload["count"])
	}
}

func TestAbsorb_TimeoutFlush(t *testing.T) {
	s := domain.DefaultSettings(42)
	s.GroupingEnabled = true
	s.MaxGroupSize = 50
	s.GroupTimeoutSeconds = 60

	clock := time.Now().UTC()
	g := grouper.NewWithClock(s, func() time.Time { return clock })

	old := enabledEvent(domain.EventNewOrder, "O1")
	old.DetectedAt = clock.Add(-2 * time.Minute)
	if n := g.Absorb(old); n != nil {
		t.Fatal("first event should buffer")
	}

	// The pending group is older than the timeout, so the next event flushes it.
	flushed := g.Absorb(enabledEvent(domain.EventNewOrder, "O2"))
	if flushed == nil {
		t.Fatal("expected timeout-triggered flush")
	}
	if flushed.Payload["count"] != 1 {
		t.Fatalf("expected flushed count=1, got %v", flushed.Payload["count"])
	}
}

func TestAbsorb_DifferentTypesBufferSeparately(t *testing.T) {
	s := domain.DefaultSettings(42)
	s.GroupingEnabled = true
	g := grouper.New(s)

	g.Absorb(enabledEvent(domain.EventNewOrder, "O1"))
	g.Absorb(enabledEvent(domain.EventOrderReturn, "O2"))

	flushed := g.FlushAll()
	if len(flushed) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(flushed))
	}
	if flushed[0].Type != domain.EventNewOrder || flushed[1].Type != domain.EventOrderReturn {
		t.Fatalf("unexpected flush order: %s, %s", flushed[0].Type, flushed[1].Type)
	}
}

func TestDedupKeys_StableAcrossReplays(t *testing.T) {
	s := domain.DefaultSettings(42)
	s.GroupingEnabled = false

	n1 := grouper.New(s).Absorb(enabledEvent(domain.EventNewOrder, "O1"))
	n2 := grouper.New(s).Absorb(enabledEvent(domain.EventNewOrder, "O1"))

	if n1.DedupKey != n2.DedupKey {
		t.Fatal("identical logical changes must produce identical dedup keys")
	}
	if n1.ID == n2.ID {
		t.Fatal("notification IDs must still be unique")
	}
}

func TestGroupDedupKey_StableAcrossReplays(t *testing.T) {
	s := domain.DefaultSettings(42)
	s.GroupingEnabled = true

	run := func() *domain.Notification {
		g := grouper.New(s)
		g.Absorb(enabledEvent(domain.EventNewOrder, "O1"))
		g.Absorb(enabledEvent(domain.EventNewOrder, "O2"))
		return g.FlushAll()[0]
	}

	if run().DedupKey != run().DedupKey {
		t.Fatal("replayed batch must produce the same group dedup key")
	}
}
