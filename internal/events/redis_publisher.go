package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redisCommands is the subset of the go-redis client the publisher uses.
type redisCommands interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
}

// RedisConfig names the channel and the alert list.
type RedisConfig struct {
	Channel   string
	AlertsKey string
	AlertsCap int64
}

// RedisPublisher broadcasts every event on a pub/sub channel and keeps the
// most recent alerts in a capped list for dashboards that poll.
type RedisPublisher struct {
	client redisCommands
	cfg    RedisConfig
}

// NewRedisPublisher creates a publisher on client.
func NewRedisPublisher(client redisCommands, cfg RedisConfig) *RedisPublisher {
	if cfg.AlertsCap <= 0 {
		cfg.AlertsCap = 100
	}
	return &RedisPublisher{client: client, cfg: cfg}
}

func (p *RedisPublisher) Name() string { return "redis" }

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, p.cfg.Channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", p.cfg.Channel, err)
	}
	if !e.Type.IsAlert() {
		return nil
	}
	if err := p.client.LPush(ctx, p.cfg.AlertsKey, payload).Err(); err != nil {
		return fmt.Errorf("pushing alert to %s: %w", p.cfg.AlertsKey, err)
	}
	if err := p.client.LTrim(ctx, p.cfg.AlertsKey, 0, p.cfg.AlertsCap-1).Err(); err != nil {
		return fmt.Errorf("trimming %s: %w", p.cfg.AlertsKey, err)
	}
	return nil
}
