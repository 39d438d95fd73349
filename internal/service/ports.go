package service

import (
	"Vista/internal/api/dto"
	"Vista/internal/pkg/media"
	"context"
	"io"
)

// ObjectStorage 对象存储
type ObjectStorage interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// RealtimePublisher 实时推送，用户不在线时静默
type RealtimePublisher interface {
	Publish(ctx context.Context, userID uint64, event dto.RealtimeEvent) error
}

// MediaEventSink 媒体处理结果的下游事件
type MediaEventSink interface {
	PublishMediaEvent(ctx context.Context, evt dto.MediaEventMessage) error
}

type ImageProcessor interface {
	Process(r io.Reader) ([]byte, error)
}

type VideoProcessor interface {
	Process(ctx context.Context, in media.VideoInput, handle func(ctx context.Context, out *media.VideoOutput) error) error
}
