package handler

import (
	"net/http"

	"github.com/sellerpulse/notify-core/internal/queue"
)

// StatsHandler exposes the queue's lifetime counters and current depths as a
// JSON snapshot, complementing the raw Prometheus scrape endpoint.
type StatsHandler struct {
	q *queue.PriorityQueue
}

func NewStatsHandler(q *queue.PriorityQueue) *StatsHandler {
	return &StatsHandler{q: q}
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.q.Stats(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}

	high, medium, low, err := h.q.Depths(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"queue_size":       stats.QueueSize,
		"total_processed":  stats.TotalProcessed,
		"total_successful": stats.TotalSuccessful,
		"total_failed":     stats.TotalFailed,
		"success_rate":     stats.SuccessRate,
		"depths": map[string]int64{
			"high":   high,
			"medium": medium,
			"low":    low,
		},
	})
}
