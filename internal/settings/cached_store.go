package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sellerpulse/notify-core/internal/cache"
	"github.com/sellerpulse/notify-core/internal/domain"
)

const cacheKeyPrefix = "notify:settings:"

// CachedStore decorates a Store with a TTL cache. A settings change becomes
// visible to the pipeline only after the cache entry expires or is
// invalidated by UpdateUserSettings — an accepted eventual-consistency
// window.
type CachedStore struct {
	inner  Store
	store  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedStore(inner Store, store cache.Store, ttl time.Duration, logger *zap.Logger) *CachedStore {
	return &CachedStore{inner: inner, store: store, ttl: ttl, logger: logger}
}

func (c *CachedStore) GetUserSettings(ctx context.Context, userID int64) (domain.NotificationSettings, error) {
	key := fmt.Sprintf("%s%d", cacheKeyPrefix, userID)

	raw, err := c.store.Get(ctx, key)
	if err == nil {
		var s domain.NotificationSettings
		if uerr := json.Unmarshal([]byte(raw), &s); uerr == nil {
			return s, nil
		}
		// Poisoned entry: fall through to the source of truth.
		c.logger.Warn("discarding undecodable cached settings", zap.Int64("user_id", userID))
	} else if !errors.Is(err, cache.ErrMiss) {
		// A degraded cache must not take down the pipeline; read through.
		c.logger.Warn("settings cache read failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	s, err := c.inner.GetUserSettings(ctx, userID)
	if err != nil {
		return domain.NotificationSettings{}, err
	}

	if data, merr := json.Marshal(s); merr == nil {
		if serr := c.store.Set(ctx, key, string(data), c.ttl); serr != nil {
			c.logger.Warn("settings cache write failed", zap.Int64("user_id", userID), zap.Error(serr))
		}
	}
	return s, nil
}

// UpdateUserSettings writes through and explicitly invalidates the cache
// entry so the change is visible before the TTL elapses.
func (c *CachedStore) UpdateUserSettings(ctx context.Context, s domain.NotificationSettings) error {
	if err := c.inner.UpdateUserSettings(ctx, s); err != nil {
		return err
	}
	key := fmt.Sprintf("%s%d", cacheKeyPrefix, s.UserID)
	if err := c.store.Del(ctx, key); err != nil {
		c.logger.Warn("settings cache invalidation failed", zap.Int64("user_id", s.UserID), zap.Error(err))
	}
	return nil
}

// compile-time check that CachedStore implements Store
var _ Store = (*CachedStore)(nil)
