package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sellerpulse/notify-core/internal/domain"
)

type pgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore returns a Store backed by PostgreSQL.
func NewPgStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (r *pgStore) GetUserSettings(ctx context.Context, userID int64) (domain.NotificationSettings, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT user_id, notifications_enabled,
		       new_orders_enabled, order_buyouts_enabled,
		       order_cancellations_enabled, order_returns_enabled,
		       negative_reviews_enabled, review_rating_threshold,
		       critical_stocks_enabled,
		       grouping_enabled, max_group_size, group_timeout_seconds
		FROM user_settings WHERE user_id = $1`, userID)

	var s domain.NotificationSettings
	err := row.Scan(
		&s.UserID, &s.NotificationsEnabled,
		&s.NewOrdersEnabled, &s.OrderBuyoutsEnabled,
		&s.OrderCancellationsEnabled, &s.OrderReturnsEnabled,
		&s.NegativeReviewsEnabled, &s.ReviewRatingThreshold,
		&s.CriticalStocksEnabled,
		&s.GroupingEnabled, &s.MaxGroupSize, &s.GroupTimeoutSeconds,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotificationSettings{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.NotificationSettings{}, fmt.Errorf("select user settings: %w", err)
	}
	return s, nil
}

func (r *pgStore) UpdateUserSettings(ctx context.Context, s domain.NotificationSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_settings
			(user_id, notifications_enabled,
			 new_orders_enabled, order_buyouts_enabled,
			 order_cancellations_enabled, order_returns_enabled,
			 negative_reviews_enabled, review_rating_threshold,
			 critical_stocks_enabled,
			 grouping_enabled, max_group_size, group_timeout_seconds,
			 updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now())
		ON CONFLICT (user_id) DO UPDATE SET
			notifications_enabled       = EXCLUDED.notifications_enabled,
			new_orders_enabled          = EXCLUDED.new_orders_enabled,
			order_buyouts_enabled       = EXCLUDED.order_buyouts_enabled,
			order_cancellations_enabled = EXCLUDED.order_cancellations_enabled,
			order_returns_enabled       = EXCLUDED.order_returns_enabled,
			negative_reviews_enabled    = EXCLUDED.negative_reviews_enabled,
			review_rating_threshold     = EXCLUDED.review_rating_threshold,
			critical_stocks_enabled     = EXCLUDED.critical_stocks_enabled,
			grouping_enabled            = EXCLUDED.grouping_enabled,
			max_group_size              = EXCLUDED.max_group_size,
			group_timeout_seconds       = EXCLUDED.group_timeout_seconds,
			updated_at                  = now()`,
		s.UserID, s.NotificationsEnabled,
		s.NewOrdersEnabled, s.OrderBuyoutsEnabled,
		s.OrderCancellationsEnabled, s.OrderReturnsEnabled,
		s.NegativeReviewsEnabled, s.ReviewRatingThreshold,
		s.CriticalStocksEnabled,
		s.GroupingEnabled, s.MaxGroupSize, s.GroupTimeoutSeconds,
	)
	if err != nil {
		return fmt.Errorf("upsert user settings: %w", err)
	}
	return nil
}
