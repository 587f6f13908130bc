// Package gate classifies change events into notification categories and
// drops those the user has disabled.
package gate

import "github.com/sellerpulse/notify-core/internal/domain"

// EnabledEvent is a change event that passed the settings gate, annotated
// with the notification category and queue priority it maps to. The embedded
// event stays untouched.
type EnabledEvent struct {
	domain.ChangeEvent

	Type     domain.EventType
	Priority domain.Priority
}

// Gate is stateless; settings are passed per call so one instance serves all
// users.
type Gate struct{}

func New() *Gate { return &Gate{} }

// Filter returns the events enabled by the user's settings, classified into
// notification categories. With the master switch off everything is dropped.
func (g *Gate) Filter(events []domain.ChangeEvent, s domain.NotificationSettings) []EnabledEvent {
	if !s.NotificationsEnabled {
		return nil
	}

	var enabled []EnabledEvent
	for _, ev := range events {
		typ, prio, ok := classify(ev, s)
		if !ok {
			continue
		}
		enabled = append(enabled, EnabledEvent{ChangeEvent: ev, Type: typ, Priority: prio})
	}
	return enabled
}

func classify(ev domain.ChangeEvent, s domain.NotificationSettings) (domain.EventType, domain.Priority, bool) {
	switch ev.EntityType {
	case domain.EntityOrder:
		return classifyOrder(ev, s)
	case domain.EntityReview:
		return classifyReview(ev, s)
	case domain.EntityStock:
		if ev.ChangeKind == domain.ChangeThresholdCrossed && s.CriticalStocksEnabled {
			return domain.EventCriticalStock, domain.PriorityHigh, true
		}
	case domain.EntitySale:
		// A sale reaching buyout is reported under the buyouts category.
		if status, _ := ev.After["status"].(string); status == domain.OrderStatusBuyout && s.OrderBuyoutsEnabled {
			return domain.EventSaleCompleted, domain.PriorityLow, true
		}
	}
	return "", "", false
}

func classifyOrder(ev domain.ChangeEvent, s domain.NotificationSettings) (domain.EventType, domain.Priority, bool) {
	if ev.ChangeKind == domain.ChangeCreated {
		if s.NewOrdersEnabled {
			return domain.EventNewOrder, domain.PriorityHigh, true
		}
		return "", "", false
	}

	status, _ := ev.After["status"].(string)
	switch status {
	case domain.OrderStatusBuyout:
		if s.OrderBuyoutsEnabled {
			return domain.EventOrderBuyout, domain.PriorityMedium, true
		}
	case domain.OrderStatusCancelled:
		if s.OrderCancellationsEnabled {
			return domain.EventOrderCancellation, domain.PriorityHigh, true
		}
	case domain.OrderStatusReturned:
		if s.OrderReturnsEnabled {
			return domain.EventOrderReturn, domain.PriorityMedium, true
		}
	}
	return "", "", false
}

// classifyReview applies the inclusive rating cutoff. A threshold of 0
// disables the category entirely.
func classifyReview(ev domain.ChangeEvent, s domain.NotificationSettings) (domain.EventType, domain.Priority, bool) {
	if !s.NegativeReviewsEnabled || s.ReviewRatingThreshold <= 0 {
		return "", "", false
	}
	rating, ok := ev.After["rating"].(int)
	if !ok {
		// Payloads that crossed a JSON boundary carry numbers as float64.
		f, fok := ev.After["rating"].(float64)
		if !fok {
			return "", "", false
		}
		rating = int(f)
	}
	if rating <= s.ReviewRatingThreshold {
		return domain.EventNegativeReview, domain.PriorityMedium, true
	}
	return "", "", false
}
