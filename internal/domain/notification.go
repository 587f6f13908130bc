package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Notification is one deliverable unit produced by the grouper: either a
// single change event or a merged burst of same-type events. It is the item
// placed on the priority queue.
type Notification struct {
	ID        string         `json:"notification_id"`
	UserID    int64          `json:"user_id"`
	Type      EventType      `json:"type"`
	Priority  Priority       `json:"priority"`
	Payload   map[string]any `json:"payload"`
	DedupKey  string         `json:"dedup_key"`
	CreatedAt time.Time      `json:"created_at"`
}

// DeliveryStatus is the terminal outcome of one delivery attempt series.
type DeliveryStatus string

const (
	StatusDelivered DeliveryStatus = "delivered"
	StatusFailed    DeliveryStatus = "failed"
	StatusSkipped   DeliveryStatus = "skipped"
)

// DeliveryResult summarises what happened to one notification.
type DeliveryResult struct {
	Success  bool           `json:"success"`
	Attempts int            `json:"attempts"`
	Status   DeliveryStatus `json:"status"`
	Err      error          `json:"-"`
}

// DedupKey derives the identifier that guarantees at most one active
// notification per logical change within the grouping window.
func DedupKey(userID int64, entityType EntityType, entityID string, kind ChangeKind) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%d:%s:%s:%s", userID, entityType, entityID, kind))
	return hex.EncodeToString(sum[:])
}

// GroupDedupKey derives the dedup key for a merged notification. The first
// event's entity identity anchors the key so replaying the identical batch
// collides with the original group rather than enqueuing a second one.
func GroupDedupKey(userID int64, typ EventType, firstEntityID string) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%d:group:%s:%s", userID, typ, firstEntityID))
	return hex.EncodeToString(sum[:])
}
