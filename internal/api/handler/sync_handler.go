package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/sellerpulse/notify-core/internal/domain"
	"github.com/sellerpulse/notify-core/internal/pipeline"
)

// syncRequest is one sync cycle's snapshot pair for a single user/cabinet.
type syncRequest struct {
	UserID    int64            `json:"user_id"`
	CabinetID string           `json:"cabinet_id"`
	Batch     domain.SyncBatch `json:"batch"`
}

// SyncHandler accepts snapshot pairs from the marketplace sync adapter and
// runs them through the producer pipeline.
type SyncHandler struct {
	orch   *pipeline.Orchestrator
	logger *zap.Logger
}

func NewSyncHandler(orch *pipeline.Orchestrator, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{orch: orch, logger: logger}
}

// Process handles POST /api/v1/sync
//
// The response is always 200 with a summary: per-event failures are reported
// in the errors array, never as an HTTP failure, so one bad event cannot make
// the adapter retry (and re-deliver) the whole batch.
func (h *SyncHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID <= 0 {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	summary := h.orch.ProcessSyncEvents(r.Context(), req.UserID, req.CabinetID, req.Batch)
	if len(summary.Errors) > 0 {
		h.logger.Warn("sync pass finished with errors",
			zap.Int64("user_id", req.UserID),
			zap.Int("error_count", len(summary.Errors)),
		)
	}
	respondJSON(w, http.StatusOK, summary)
}
