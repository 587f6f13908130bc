package domain

// NotificationSettings is the per-user configuration consumed (read-only) by
// the pipeline. All defaults live in DefaultSettings; call sites never invent
// their own fallbacks.
type NotificationSettings struct {
	UserID int64 `json:"user_id"`

	// Master switch: when false every event is dropped regardless of the
	// per-type flags below.
	NotificationsEnabled bool `json:"notifications_enabled"`

	NewOrdersEnabled          bool `json:"new_orders_enabled"`
	OrderBuyoutsEnabled       bool `json:"order_buyouts_enabled"`
	OrderCancellationsEnabled bool `json:"order_cancellations_enabled"`
	OrderReturnsEnabled       bool `json:"order_returns_enabled"`

	// NegativeReviewsEnabled gates review notifications; a review qualifies
	// when its rating is <= ReviewRatingThreshold (inclusive). A threshold of
	// 0 disables the category even when the flag is set.
	NegativeReviewsEnabled bool `json:"negative_reviews_enabled"`
	ReviewRatingThreshold  int  `json:"review_rating_threshold"`

	CriticalStocksEnabled bool `json:"critical_stocks_enabled"`

	GroupingEnabled     bool `json:"grouping_enabled"`
	MaxGroupSize        int  `json:"max_group_size"`
	GroupTimeoutSeconds int  `json:"group_timeout_seconds"`
}

// DefaultSettings returns the documented defaults for a user without a
// persisted settings row.
func DefaultSettings(userID int64) NotificationSettings {
	return NotificationSettings{
		UserID:                    userID,
		NotificationsEnabled:      true,
		NewOrdersEnabled:          true,
		OrderBuyoutsEnabled:       true,
		OrderCancellationsEnabled: true,
		OrderReturnsEnabled:       true,
		NegativeReviewsEnabled:    true,
		ReviewRatingThreshold:     3,
		CriticalStocksEnabled:     true,
		GroupingEnabled:           false,
		MaxGroupSize:              10,
		GroupTimeoutSeconds:       60,
	}
}

// Validate rejects malformed settings before they reach the store or the
// pipeline.
func (s NotificationSettings) Validate() error {
	if s.ReviewRatingThreshold < 0 || s.ReviewRatingThreshold > 5 {
		return ErrInvalidRatingThreshold
	}
	if s.MaxGroupSize < 1 || s.MaxGroupSize > 50 {
		return ErrInvalidGroupSize
	}
	if s.GroupTimeoutSeconds < 0 || s.GroupTimeoutSeconds > 300 {
		return ErrInvalidGroupTimeout
	}
	return nil
}
