package ws

import (
	"Vista/internal/pkg/consts"
	"Vista/internal/pkg/redis"
	"context"
	"fmt"
	log "log/slog"
	"strconv"
	"strings"
)

// Relay 订阅所有用户的媒体频道，把消息转交给本实例的 Registry
type Relay struct {
	registry *Registry
}

func NewRelay(registry *Registry) *Relay {
	return &Relay{registry: registry}
}

// Run 阻塞直到 ctx 结束
func (s *Relay) Run(ctx context.Context) error {
	pubsub := redis.PSubscribe(ctx, consts.MediaUserChannelPattern)
	defer func() {
		_ = pubsub.Close()
	}()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", consts.MediaUserChannelPattern, err)
	}
	log.Info("ws relay subscribed", "pattern", consts.MediaUserChannelPattern)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.Deliver(msg.Channel, []byte(msg.Payload))
		}
	}
}

// Deliver 按频道名解析用户并投递
func (s *Relay) Deliver(channel string, payload []byte) int {
	userID, ok := UserIDFromChannel(channel)
	if !ok {
		log.Warn("ws relay ignored message on unexpected channel", "channel", channel)
		return 0
	}
	return s.registry.Emit(userID, payload)
}

func UserChannel(userID uint64) string {
	return consts.MediaUserChannel + strconv.FormatUint(userID, 10)
}

func UserIDFromChannel(channel string) (uint64, bool) {
	raw, ok := strings.CutPrefix(channel, consts.MediaUserChannel)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
