package domain

import "time"

// EntityType identifies which marketplace collection a change was detected in.
type EntityType string

const (
	EntityOrder  EntityType = "order"
	EntityReview EntityType = "review"
	EntityStock  EntityType = "stock"
	EntitySale   EntityType = "sale"
)

func (e EntityType) IsValid() bool {
	switch e {
	case EntityOrder, EntityReview, EntityStock, EntitySale:
		return true
	}
	return false
}

// ChangeKind classifies how a record differs between two snapshots.
type ChangeKind string

const (
	ChangeCreated          ChangeKind = "created"
	ChangeStatusTransition ChangeKind = "status_transition"
	ChangeThresholdCrossed ChangeKind = "threshold_crossed"
)

// EventType is the user-facing notification category an enabled event maps to.
// Assigned by the settings gate; the differ only records raw facts.
type EventType string

const (
	EventNewOrder          EventType = "new_order"
	EventOrderBuyout       EventType = "order_buyout"
	EventOrderCancellation EventType = "order_cancellation"
	EventOrderReturn       EventType = "order_return"
	EventNegativeReview    EventType = "negative_review"
	EventCriticalStock     EventType = "critical_stock"
	EventSaleCompleted     EventType = "sale_completed"
)

// Priority controls queue ordering. High is drained first.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ChangeEvent is one detected difference between a previous and current
// snapshot of a domain entity. Immutable once created; produced only by the
// snapshot differ and consumed within a single pipeline pass.
type ChangeEvent struct {
	ID         string         `json:"event_id"`
	EntityType EntityType     `json:"entity_type"`
	ChangeKind ChangeKind     `json:"change_kind"`
	EntityID   string         `json:"entity_id"`
	Before     map[string]any `json:"before,omitempty"`
	After      map[string]any `json:"after"`
	UserID     int64          `json:"user_id"`
	CabinetID  string         `json:"cabinet_id"`
	DetectedAt time.Time      `json:"detected_at"`
}
