package domain

import "errors"

// Sentinel errors used throughout the application.
// HTTP handlers translate these to status codes via a single mapError function;
// the delivery path classifies them into retry decisions.
var (
	ErrNotFound = errors.New("not found")

	// Settings validation.
	ErrInvalidRatingThreshold = errors.New("review_rating_threshold must be between 0 and 5")
	ErrInvalidGroupSize       = errors.New("max_group_size must be between 1 and 50")
	ErrInvalidGroupTimeout    = errors.New("group_timeout_seconds must be between 0 and 300")

	// Queue.
	ErrDuplicate     = errors.New("duplicate dedup key within the active grouping window")
	ErrQueueEmpty    = errors.New("queue is empty")
	ErrSerialization = errors.New("queue item could not be decoded")

	// Delivery classification.
	ErrRemoteRejected  = errors.New("permanent rejection from remote endpoint")
	ErrRateLimited     = errors.New("rate limited by remote endpoint")
	ErrRemoteServer    = errors.New("remote endpoint server error")
	ErrTransport       = errors.New("transport failure before any response")
	ErrConflictSkipped = errors.New("operation already in flight elsewhere")
)
