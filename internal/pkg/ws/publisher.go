package ws

import (
	"Vista/internal/api/dto"
	"Vista/internal/pkg/redis"
	"context"

	"github.com/goccy/go-json"
)

const (
	ModeRedis = "redis"
	ModeLocal = "local"
)

// RedisPublisher 经 Redis 广播到所有实例，由各实例的 Relay 投递
type RedisPublisher struct{}

func NewRedisPublisher() *RedisPublisher {
	return &RedisPublisher{}
}

func (s *RedisPublisher) Publish(ctx context.Context, userID uint64, event dto.RealtimeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = redis.Publish(ctx, UserChannel(userID), payload)
	return err
}

// LocalPublisher 单实例部署时直接写入 Registry
type LocalPublisher struct {
	registry *Registry
}

func NewLocalPublisher(registry *Registry) *LocalPublisher {
	return &LocalPublisher{registry: registry}
}

func (s *LocalPublisher) Publish(_ context.Context, userID uint64, event dto.RealtimeEvent) error {
	if !s.registry.IsOnline(userID) {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.registry.Emit(userID, payload)
	return nil
}
