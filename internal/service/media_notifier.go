package service

import (
	"Vista/internal/api/dto"
	"Vista/internal/pkg/consts"
	"Vista/internal/pkg/mongo"
	"context"
	log "log/slog"
	"time"
)

// MediaNotifier 在媒体进入终态后通知作者，并向下游发送事件。推送失败只记录日志。
type MediaNotifier interface {
	NotifyCompleted(ctx context.Context, task *TranscodeTask, result mongo.MediaCompletion)
	NotifyFailed(ctx context.Context, task *TranscodeTask, reason string)
}

type mediaNotifierImpl struct {
	publisher RealtimePublisher
	events    MediaEventSink
	storage   ObjectStorage
}

// NewMediaNotifier events 可以为 nil
func NewMediaNotifier(publisher RealtimePublisher, events MediaEventSink, storage ObjectStorage) MediaNotifier {
	return &mediaNotifierImpl{publisher: publisher, events: events, storage: storage}
}

func (s *mediaNotifierImpl) NotifyCompleted(ctx context.Context, task *TranscodeTask, result mongo.MediaCompletion) {
	s.push(ctx, task, dto.RealtimeEvent{
		Event: dto.EventVideoProcessingComplete,
		Data: dto.VideoProcessingCompleteDTO{
			PostID:     task.PostID.Hex(),
			MediaIndex: task.MediaIndex,
			VideoData: dto.VideoDataDTO{
				URL:       s.storage.PublicURL(result.ObjectKey),
				Thumbnail: s.storage.PublicURL(result.ThumbnailKey),
				Duration:  result.DurationSeconds,
			},
		},
	})
	s.emit(ctx, dto.MediaEventMessage{
		Type:            consts.ProcessingCompleted,
		JobID:           task.JobID,
		PostID:          task.PostID.Hex(),
		MediaIndex:      task.MediaIndex,
		AuthorID:        task.AuthorID,
		ObjectKey:       result.ObjectKey,
		ThumbnailKey:    result.ThumbnailKey,
		DurationSeconds: result.DurationSeconds,
		OccurredAt:      time.Now().UnixMilli(),
	})
}

func (s *mediaNotifierImpl) NotifyFailed(ctx context.Context, task *TranscodeTask, reason string) {
	s.push(ctx, task, dto.RealtimeEvent{
		Event: dto.EventVideoProcessingFailed,
		Data: dto.VideoProcessingFailedDTO{
			PostID:     task.PostID.Hex(),
			MediaIndex: task.MediaIndex,
			Error:      reason,
		},
	})
	s.emit(ctx, dto.MediaEventMessage{
		Type:       consts.ProcessingFailed,
		JobID:      task.JobID,
		PostID:     task.PostID.Hex(),
		MediaIndex: task.MediaIndex,
		AuthorID:   task.AuthorID,
		Error:      reason,
		OccurredAt: time.Now().UnixMilli(),
	})
}

func (s *mediaNotifierImpl) push(ctx context.Context, task *TranscodeTask, evt dto.RealtimeEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, task.AuthorID, evt); err != nil {
		log.WarnContext(ctx, "realtime push failed", "event", evt.Event, "userID", task.AuthorID, "jobID", task.JobID, "err", err)
	}
}

func (s *mediaNotifierImpl) emit(ctx context.Context, evt dto.MediaEventMessage) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishMediaEvent(ctx, evt); err != nil {
		log.WarnContext(ctx, "media event publish failed", "type", evt.Type, "jobID", evt.JobID, "err", err)
	}
}

// BuildMediaStatus 由帖子当前状态计算处理进度
func BuildMediaStatus(post *mongo.PostModel, urlOf func(string) string) *dto.MediaStatusDTO {
	status := &dto.MediaStatusDTO{
		PostID: post.ID.Hex(),
		Media:  toMediaDTOs(post.Media, urlOf),
	}
	for _, m := range post.Media {
		switch m.ProcessingState {
		case consts.ProcessingPending:
			status.ProcessingCount++
		case consts.ProcessingFailed:
			status.FailedCount++
		}
	}
	status.IsProcessing = status.ProcessingCount > 0
	status.HasFailures = status.FailedCount > 0
	return status
}
