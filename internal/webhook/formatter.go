package webhook

import (
	"fmt"

	"github.com/sellerpulse/notify-core/internal/domain"
)

// MessageFormatter renders the human-readable text attached to the delivery
// envelope. Formatting and i18n live outside this core; the pipeline only
// carries the result along.
type MessageFormatter interface {
	Format(typ domain.EventType, data map[string]any) string
}

// FormatterFunc adapts a plain function to MessageFormatter.
type FormatterFunc func(typ domain.EventType, data map[string]any) string

func (f FormatterFunc) Format(typ domain.EventType, data map[string]any) string {
	return f(typ, data)
}

// DefaultFormatter produces a plain one-line summary per event type. Grouped
// payloads (carrying a "count" field) get the aggregate form.
type DefaultFormatter struct{}

func (DefaultFormatter) Format(typ domain.EventType, data map[string]any) string {
	if count, ok := groupCount(data); ok {
		return fmt.Sprintf("%s: %d events", label(typ), count)
	}
	if id, ok := data["entity_id"].(string); ok && id != "" {
		return fmt.Sprintf("%s (%s)", label(typ), id)
	}
	return label(typ)
}

func label(typ domain.EventType) string {
	switch typ {
	case domain.EventNewOrder:
		return "New order"
	case domain.EventOrderBuyout:
		return "Order bought out"
	case domain.EventOrderCancellation:
		return "Order cancelled"
	case domain.EventOrderReturn:
		return "Order returned"
	case domain.EventNegativeReview:
		return "Negative review"
	case domain.EventCriticalStock:
		return "Critical stock level"
	case domain.EventSaleCompleted:
		return "Sale completed"
	default:
		return string(typ)
	}
}

// groupCount handles both int (in-process) and float64 (after a JSON
// round-trip through the queue) representations.
func groupCount(data map[string]any) (int, bool) {
	switch v := data["count"].(type) {
	case int:
		return v, v > 1
	case float64:
		return int(v), v > 1
	default:
		return 0, false
	}
}
