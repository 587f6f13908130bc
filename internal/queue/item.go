package queue

import (
	"encoding/json"
	"fmt"

	"github.com/sellerpulse/notify-core/internal/domain"
)

// Items are stored as JSON in the redis lists. The codec lives here so the
// queue logic stays free of serialization details.

func encodeItem(n *domain.Notification) (string, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return "", fmt.Errorf("encode queue item: %w", err)
	}
	return string(data), nil
}

func decodeItem(raw string) (*domain.Notification, error) {
	var n domain.Notification
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSerialization, err)
	}
	return &n, nil
}
