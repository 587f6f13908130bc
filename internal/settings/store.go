package settings

import (
	"context"

	"github.com/sellerpulse/notify-core/internal/domain"
)

// Store defines persistence for per-user notification settings.
// The pgx implementation is in pg_store.go, the cache decorator in
// cached_store.go. Tests use a hand-written mock (mock_store.go).
type Store interface {
	// GetUserSettings returns domain.ErrNotFound for a user without a
	// settings row.
	GetUserSettings(ctx context.Context, userID int64) (domain.NotificationSettings, error)
	UpdateUserSettings(ctx context.Context, s domain.NotificationSettings) error
}
