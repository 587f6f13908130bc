// Package differ compares previous and current marketplace snapshots and
// produces typed change events. Records present only in the previous snapshot
// are not reported: deletions are not notified.
package differ

import (
	"time"

	"github.com/google/uuid"

	"github.com/sellerpulse/notify-core/internal/domain"
)

// Differ detects changes between two snapshots of the same entity type.
// It records raw facts only; mapping to notification categories is the
// settings gate's job.
type Differ struct {
	criticalStock int
	now           func() time.Time
}

// New creates a Differ. criticalStock is the quantity at or below which a
// stock level counts as critical.
func New(criticalStock int) *Differ {
	return &Differ{criticalStock: criticalStock, now: time.Now}
}

// NewWithClock is used by tests that need deterministic detected_at stamps.
func NewWithClock(criticalStock int, now func() time.Time) *Differ {
	return &Differ{criticalStock: criticalStock, now: now}
}

// Diff produces change events for every entity type in the batch.
// Multiple watched-field changes on one record in one pass emit at most one
// event per watched transition type.
func (d *Differ) Diff(userID int64, cabinetID string, batch domain.SyncBatch) []domain.ChangeEvent {
	var events []domain.ChangeEvent
	events = append(events, d.diffOrders(userID, cabinetID, batch.PreviousOrders, batch.CurrentOrders)...)
	events = append(events, d.diffReviews(userID, cabinetID, batch.PreviousReviews, batch.CurrentReviews)...)
	events = append(events, d.diffStocks(userID, cabinetID, batch.PreviousStocks, batch.CurrentStocks)...)
	events = append(events, d.diffSales(userID, cabinetID, batch.PreviousSales, batch.CurrentSales)...)
	return events
}

func (d *Differ) event(userID int64, cabinetID string, et domain.EntityType, kind domain.ChangeKind, entityID string, before, after map[string]any) domain.ChangeEvent {
	return domain.ChangeEvent{
		ID:         uuid.New().String(),
		EntityType: et,
		ChangeKind: kind,
		EntityID:   entityID,
		Before:     before,
		After:      after,
		UserID:     userID,
		CabinetID:  cabinetID,
		DetectedAt: d.now().UTC(),
	}
}

func (d *Differ) diffOrders(userID int64, cabinetID string, previous, current []domain.Order) []domain.ChangeEvent {
	prev := make(map[string]domain.Order, len(previous))
	for _, o := range previous {
		prev[o.ID] = o
	}

	var events []domain.ChangeEvent
	for _, o := range current {
		old, seen := prev[o.ID]
		switch {
		case !seen:
			events = append(events, d.event(userID, cabinetID, domain.EntityOrder, domain.ChangeCreated, o.ID,
				nil,
				map[string]any{"status": o.Status, "amount": o.Amount},
			))
		case old.Status != o.Status:
			events = append(events, d.event(userID, cabinetID, domain.EntityOrder, domain.ChangeStatusTransition, o.ID,
				map[string]any{"status": old.Status},
				map[string]any{"status": o.Status, "amount": o.Amount},
			))
		}
	}
	return events
}

func (d *Differ) diffReviews(userID int64, cabinetID string, previous, current []domain.Review) []domain.ChangeEvent {
	prev := make(map[string]domain.Review, len(previous))
	for _, r := range previous {
		prev[r.ID] = r
	}

	var events []domain.ChangeEvent
	for _, r := range current {
		old, seen := prev[r.ID]
		switch {
		case !seen:
			events = append(events, d.event(userID, cabinetID, domain.EntityReview, domain.ChangeCreated, r.ID,
				nil,
				map[string]any{"rating": r.Rating, "product_id": r.ProductID, "text": r.Text},
			))
		case old.Rating != r.Rating:
			events = append(events, d.event(userID, cabinetID, domain.EntityReview, domain.ChangeThresholdCrossed, r.ID,
				map[string]any{"rating": old.Rating},
				map[string]any{"rating": r.Rating, "product_id": r.ProductID},
			))
		}
	}
	return events
}

// diffStocks reports only downward crossings of the critical quantity: a
// stock already below the threshold in both snapshots is not re-reported.
func (d *Differ) diffStocks(userID int64, cabinetID string, previous, current []domain.Stock) []domain.ChangeEvent {
	prev := make(map[string]domain.Stock, len(previous))
	for _, s := range previous {
		prev[s.SKU] = s
	}

	var events []domain.ChangeEvent
	for _, s := range current {
		old, seen := prev[s.SKU]
		switch {
		case !seen:
			events = append(events, d.event(userID, cabinetID, domain.EntityStock, domain.ChangeCreated, s.SKU,
				nil,
				map[string]any{"quantity": s.Quantity},
			))
		case old.Quantity > d.criticalStock && s.Quantity <= d.criticalStock:
			events = append(events, d.event(userID, cabinetID, domain.EntityStock, domain.ChangeThresholdCrossed, s.SKU,
				map[string]any{"quantity": old.Quantity},
				map[string]any{"quantity": s.Quantity, "threshold": d.criticalStock},
			))
		}
	}
	return events
}

func (d *Differ) diffSales(userID int64, cabinetID string, previous, current []domain.Sale) []domain.ChangeEvent {
	prev := make(map[string]domain.Sale, len(previous))
	for _, s := range previous {
		prev[s.ID] = s
	}

	var events []domain.ChangeEvent
	for _, s := range current {
		old, seen := prev[s.ID]
		switch {
		case !seen:
			events = append(events, d.event(userID, cabinetID, domain.EntitySale, domain.ChangeCreated, s.ID,
				nil,
				map[string]any{"status": s.Status, "amount": s.Amount},
			))
		case old.Status != s.Status:
			events = append(events, d.event(userID, cabinetID, domain.EntitySale, domain.ChangeStatusTransition, s.ID,
				map[string]any{"status": old.Status},
				map[string]any{"status": s.Status, "amount": s.Amount},
			))
		}
	}
	return events
}
