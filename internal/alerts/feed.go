// Package alerts forwards low-stock alerts to a Redis list and mails a daily
// digest built from it.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rogerio-castellano/stationery-tracker/internal/models"
	"github.com/rs/zerolog/log"
)

const DailyAlertKey = "stock:alerts:daily"

// NopPublisher drops every alert. It is used when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.Alert) error { return nil }

// RedisFeed appends alerts to a Redis list that the daily digest drains.
type RedisFeed struct {
	rdb *redis.Client
	key string
}

func NewRedisFeed(rdb *redis.Client) *RedisFeed {
	return &RedisFeed{rdb: rdb, key: DailyAlertKey}
}

func (f *RedisFeed) Ping(ctx context.Context) error {
	return f.rdb.Ping(ctx).Err()
}

func (f *RedisFeed) Publish(ctx context.Context, a models.Alert) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return f.rdb.RPush(ctx, f.key, data).Err()
}

// Pending returns the queued alerts without removing them, plus the number of
// list entries read. Malformed entries are counted but skipped.
func (f *RedisFeed) Pending(ctx context.Context) ([]models.Alert, int, error) {
	entries, err := f.rdb.LRange(ctx, f.key, 0, -1).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", f.key, err)
	}
	return decodeAlerts(entries), len(entries), nil
}

// Ack removes the first n entries. Alerts published after Pending stay queued.
func (f *RedisFeed) Ack(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	if err := f.rdb.LTrim(ctx, f.key, int64(n), -1).Err(); err != nil {
		return fmt.Errorf("failed to trim %s: %w", f.key, err)
	}
	return nil
}

func decodeAlerts(entries []string) []models.Alert {
	alerts := make([]models.Alert, 0, len(entries))
	for _, item := range entries {
		var a models.Alert
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			log.Warn().Err(err).Msg("skipping malformed alert entry")
			continue
		}
		alerts = append(alerts, a)
	}
	return alerts
}
