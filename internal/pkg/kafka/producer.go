package kafka

import (
	"Vista/internal/api/config"
	"Vista/internal/api/dto"
	"context"
	"fmt"
	log "log/slog"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// MediaEventProducer 将媒体处理结果写入 Kafka，按帖子ID分区保证同一帖子有序
type MediaEventProducer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewMediaEventProducer 未配置 broker 时返回 nil，调用方视为关闭
func NewMediaEventProducer(cfg config.KafkaConfig) (*MediaEventProducer, error) {
	if len(cfg.Brokers) == 0 {
		log.Info("Kafka brokers not configured, media events disabled")
		return nil, nil
	}
	producer, err := sarama.NewSyncProducer(cfg.Brokers, newSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return newMediaEventProducer(producer, cfg.MediaTopic), nil
}

func newMediaEventProducer(producer sarama.SyncProducer, topic string) *MediaEventProducer {
	return &MediaEventProducer{producer: producer, topic: topic}
}

// PublishMediaEvent 同步发送一条事件
func (s *MediaEventProducer) PublishMediaEvent(ctx context.Context, evt dto.MediaEventMessage) error {
	if s == nil || s.producer == nil {
		return nil
	}
	value, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(evt.PostID),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(evt.Type)},
			{Key: []byte("media_index"), Value: []byte(strconv.Itoa(evt.MediaIndex))},
		},
	}

	partition, offset, err := s.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send media event: %w", err)
	}
	log.DebugContext(ctx, "media event sent", "topic", s.topic, "partition", partition, "offset", offset, "jobID", evt.JobID)
	return nil
}

func (s *MediaEventProducer) Close() error {
	if s == nil || s.producer == nil {
		return nil
	}
	return s.producer.Close()
}
