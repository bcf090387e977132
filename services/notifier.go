package services

import (
	"context"
	"encoding/json"
	"time"

	"quizclash/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	matchStateKeyPrefix   = "match:state:"
	matchEventChanPrefix  = "match:events:"
	matchEventChanPattern = "match:events:*"
	matchStateTTL         = 2 * time.Hour
)

// Notifier propagates match state changes to observers. Notification is
// best-effort: durable state in Postgres is authoritative, so failures here
// are logged and swallowed.
type Notifier interface {
	PublishMatch(ctx context.Context, match *models.Match)
}

// RedisNotifier caches the latest match snapshot and publishes it on the
// match's event channel for live observers.
type RedisNotifier struct {
	redis  *redis.Client
	logger *zap.Logger
}

func NewRedisNotifier(client *redis.Client, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{redis: client, logger: logger}
}

func (n *RedisNotifier) PublishMatch(ctx context.Context, match *models.Match) {
	data, err := json.Marshal(match)
	if err != nil {
		n.logger.Error("failed to marshal match snapshot", zap.String("match_id", match.ID), zap.Error(err))
		return
	}

	if err := n.redis.Set(ctx, matchStateKeyPrefix+match.ID, data, matchStateTTL).Err(); err != nil {
		n.logger.Warn("failed to cache match snapshot", zap.String("match_id", match.ID), zap.Error(err))
	}
	if err := n.redis.Publish(ctx, matchEventChanPrefix+match.ID, data).Err(); err != nil {
		n.logger.Warn("failed to publish match event", zap.String("match_id", match.ID), zap.Error(err))
	}
}

// LatestSnapshot returns the cached match snapshot, or nil if none is cached.
func (n *RedisNotifier) LatestSnapshot(ctx context.Context, matchID string) []byte {
	data, err := n.redis.Get(ctx, matchStateKeyPrefix+matchID).Bytes()
	if err != nil {
		if err != redis.Nil {
			n.logger.Warn("failed to read match snapshot", zap.String("match_id", matchID), zap.Error(err))
		}
		return nil
	}
	return data
}
