package differ_test

import (
	"testing"

	"github.com/sellerpulse/notify-core/internal/differ"
	"github.com/sellerpulse/notify-core/internal/domain"
)

const criticalStock = 5

func diff(batch domain.SyncBatch) []domain.ChangeEvent {
	return differ.New(criticalStock).Diff(42, "cab-1", batch)
}

func TestDiff_NewOrder(t *testing.T) {
	events := diff(domain.SyncBatch{
		CurrentOrders: []domain.Order{{ID: "O1", Status: domain.OrderStatusNew}},
	})

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.EntityType != domain.EntityOrder || ev.ChangeKind != domain.ChangeCreated {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.EntityID != "O1" || ev.UserID != 42 || ev.CabinetID != "cab-1" {
		t.Fatalf("unexpected identity fields: %+v", ev)
	}
	if ev.After["status"] != domain.OrderStatusNew {
		t.Fatalf("expected after.status=new, got %v", ev.After["status"])
	}
}

func TestDiff_OrderStatusTransition(t *testing.T) {
	events := diff(domain.SyncBatch{
		PreviousOrders: []domain.Order{{ID: "O1", Status: domain.OrderStatusNew}},
		CurrentOrders:  []domain.Order{{ID: "O1", Status: domain.OrderStatusBuyout}},
	})

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.ChangeKind != domain.ChangeStatusTransition {
		t.Fatalf("expected status_transition, got %s", ev.ChangeKind)
	}
	if ev.Before["status"] != domain.OrderStatusNew || ev.After["status"] != domain.OrderStatusBuyout {
		t.Fatalf("unexpected before/after: %v / %v", ev.Before, ev.After)
	}
}

func TestDiff_UnchangedOrderEmitsNothing(t *testing.T) {
	events := diff(domain.SyncBatch{
		PreviousOrders: []domain.Order{{ID: "O1", Status: domain.OrderStatusNew}},
		CurrentOrders:  []domain.Order{{ID: "O1", Status: domain.OrderStatusNew}},
	})
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

// Deleted records are not reported.
func TestDiff_DeletionNotEmitted(t *testing.T) {
	events := diff(domain.SyncBatch{
		PreviousOrders: []domain.Order{{ID: "O1", Status: domain.OrderStatusNew}},
	})
	if len(events) != 0 {
		t.Fatalf("expected no events for deletion, got %d", len(events))
	}
}

func TestDiff_NewReviewCarriesRating(t *testing.T) {
	events := diff(domain.SyncBatch{
		CurrentReviews: []domain.Review{{ID: "R1", Rating: 2, ProductID: "P1"}},
	})

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.EntityType != domain.EntityReview || ev.ChangeKind != domain.ChangeCreated {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.After["rating"] != 2 {
		t.Fatalf("expected rating 2, got %v", ev.After["rating"])
	}
}

func TestDiff_ReviewRatingChange(t *testing.T) {
	events := diff(domain.SyncBatch{
		PreviousReviews: []domain.Review{{ID: "R1", Rating: 5}},
		CurrentReviews:  []domain.Review{{ID: "R1", Rating: 1}},
	})

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ChangeKind != domain.ChangeThresholdCrossed {
		t.Fatalf("expected threshold_crossed, got %s", events[0].ChangeKind)
	}
}

func TestDiff_StockCrossingThreshold(t *testing.T) {
	events := diff(domain.SyncBatch{
		PreviousStocks: []domain.Stock{{SKU: "S1", Quantity: 10}},
		CurrentStocks:  []domain.Stock{{SKU: "S1", Quantity: 3}},
	})

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.EntityType != domain.EntityStock || ev.ChangeKind != domain.ChangeThresholdCrossed {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.After["threshold"] != criticalStock {
		t.Fatalf("expected threshold %d in payload, got %v", criticalStock, ev.After["threshold"])
	}
}

// A stock already below the threshold does not re-fire on every sync.
func TestDiff_StockAlreadyCriticalNotRepeated(t *testing.T) {
	events := diff(domain.SyncBatch{
		PreviousStocks: []domain.Stock{{SKU: "S1", Quantity: 3}},
		CurrentStocks:  []domain.Stock{{SKU: "S1", Quantity: 2}},
	})
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestDiff_SaleTransition(t *testing.T) {
	events := diff(domain.SyncBatch{
		PreviousSales: []domain.Sale{{ID: "S1", Status: domain.OrderStatusNew}},
		CurrentSales:  []domain.Sale{{ID: "S1", Status: domain.OrderStatusBuyout}},
	})

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].EntityType != domain.EntitySale || events[0].ChangeKind != domain.ChangeStatusTransition {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

func TestDiff_MixedBatch(t *testing.T) {
	events := diff(domain.SyncBatch{
		CurrentOrders:  []domain.Order{{ID: "O1", Status: domain.OrderStatusNew}, {ID: "O2", Status: domain.OrderStatusNew}},
		CurrentReviews: []domain.Review{{ID: "R1", Rating: 1}},
		PreviousStocks: []domain.Stock{{SKU: "S1", Quantity: 100}},
		CurrentStocks:  []domain.Stock{{SKU: "S1", Quantity: 4}},
	})

	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	ids := map[string]bool{}
	for _, ev := range events {
		if ids[ev.ID] {
			t.Fatalf("duplicate event id %s", ev.ID)
		}
		ids[ev.ID] = true
	}
}
