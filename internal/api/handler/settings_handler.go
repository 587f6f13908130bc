package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sellerpulse/notify-core/internal/domain"
	"github.com/sellerpulse/notify-core/internal/settings"
)

// SettingsHandler serves per-user notification preferences.
type SettingsHandler struct {
	store  settings.Store
	logger *zap.Logger
}

func NewSettingsHandler(store settings.Store, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{store: store, logger: logger}
}

// Get handles GET /api/v1/users/{id}/settings
//
// A user without a persisted row gets the documented defaults rather than a
// 404: from the caller's point of view every user has settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	s, err := h.store.GetUserSettings(r.Context(), userID)
	if errors.Is(err, domain.ErrNotFound) {
		respondJSON(w, http.StatusOK, domain.DefaultSettings(userID))
		return
	}
	if err != nil {
		h.logger.Error("get settings failed", zap.Int64("user_id", userID), zap.Error(err))
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

// Update handles PUT /api/v1/users/{id}/settings
//
// The full settings document is replaced. The user ID in the path wins over
// any user_id in the body.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	var s domain.NotificationSettings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.UserID = userID

	if err := h.store.UpdateUserSettings(r.Context(), s); err != nil {
		h.logger.Warn("update settings rejected", zap.Int64("user_id", userID), zap.Error(err))
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid user ID")
		return 0, false
	}
	return id, true
}
