package service

import (
	"Vista/internal/model"
	"Vista/internal/pkg/consts"
	"Vista/internal/pkg/media"
	"Vista/internal/pkg/mongo"
	"Vista/internal/repository"
	"context"
	log "log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	failureReasonPrefix = "video processing failed: "
	settleTimeout       = 30 * time.Second
)

// VideoPipeline 单个视频任务的完整生命周期：转码、上传产物、回写帖子、通知、清理原始上传
type VideoPipeline interface {
	Run(ctx context.Context, task *TranscodeTask) error
	Fail(ctx context.Context, task *TranscodeTask, cause error)
}

type videoPipelineImpl struct {
	processor    VideoProcessor
	storage      ObjectStorage
	reconciler   MediaReconciler
	notifier     MediaNotifier
	jobs         repository.TranscodeJobRepo
	prefixFormat string
}

// NewVideoPipeline jobs 可以为 nil
func NewVideoPipeline(processor VideoProcessor, storage ObjectStorage, reconciler MediaReconciler,
	notifier MediaNotifier, jobs repository.TranscodeJobRepo, prefixFormat string) VideoPipeline {
	if prefixFormat == "" {
		prefixFormat = "2006/01/02/"
	}
	return &videoPipelineImpl{
		processor:    processor,
		storage:      storage,
		reconciler:   reconciler,
		notifier:     notifier,
		jobs:         jobs,
		prefixFormat: prefixFormat,
	}
}

// Run 出错时已经走完失败路径，返回的错误只用于日志
func (s *videoPipelineImpl) Run(ctx context.Context, task *TranscodeTask) error {
	start := time.Now()
	s.markRunning(ctx, task)

	var result mongo.MediaCompletion
	err := s.processor.Process(ctx, media.VideoInput{Data: task.Data, Filename: task.Filename},
		func(ctx context.Context, out *media.VideoOutput) error {
			videoKey, err := s.uploadFile(ctx, out.VideoPath, consts.ObjectDirVideo, ".mp4", consts.ContentTypeMP4)
			if err != nil {
				return media.WrapStage(err, "upload video")
			}
			thumbKey, err := s.uploadFile(ctx, out.ThumbnailPath, consts.ObjectDirThumbnail, ".jpg", consts.ContentTypeJPEG)
			if err != nil {
				s.deleteObjects(ctx, videoKey)
				return media.WrapStage(err, "upload thumbnail")
			}
			result = mongo.MediaCompletion{
				ObjectKey:       videoKey,
				ThumbnailKey:    thumbKey,
				ContentType:     consts.ContentTypeMP4,
				DurationSeconds: out.DurationSeconds,
			}
			return nil
		})
	if err != nil {
		s.Fail(ctx, task, err)
		return err
	}

	matched, err := s.reconciler.Complete(ctx, task, result)
	if err != nil {
		// 写入结果未知，产物保留以免帖子引用失效
		err = media.WrapStage(err, "persist result")
		s.Fail(ctx, task, err)
		return err
	}
	if !matched {
		// 帖子已删除或媒体已是终态，产物无人引用
		s.deleteObjects(ctx, result.ObjectKey, result.ThumbnailKey)
		s.finish(ctx, task, model.TranscodeFailed, "media entry no longer pending")
		return nil
	}

	s.notifier.NotifyCompleted(ctx, task, result)

	if task.SourceKey != "" {
		if err = s.storage.Delete(ctx, task.SourceKey); err != nil {
			log.WarnContext(ctx, "failed to delete original upload", "jobID", task.JobID, "key", task.SourceKey, "err", err)
		}
	}
	s.finish(ctx, task, model.TranscodeCompleted, "")

	log.InfoContext(ctx, "video transcode completed",
		"jobID", task.JobID,
		"postID", task.PostID.Hex(),
		"mediaIndex", task.MediaIndex,
		"filename", task.Filename,
		"duration", result.DurationSeconds,
		"elapsed", time.Since(start),
	)
	return nil
}

// Fail 标记失败并通知作者，原始上传保留。任务 ctx 可能已超时，因此使用独立的截止时间。
func (s *videoPipelineImpl) Fail(ctx context.Context, task *TranscodeTask, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()

	reason := failureReason(cause)
	log.ErrorContext(ctx, "video transcode failed",
		"jobID", task.JobID,
		"postID", task.PostID.Hex(),
		"mediaIndex", task.MediaIndex,
		"filename", task.Filename,
		"err", cause,
	)

	matched, err := s.reconciler.Fail(ctx, task, reason)
	if err != nil {
		log.ErrorContext(ctx, "failed to record transcode failure", "jobID", task.JobID, "err", err)
	}
	if matched {
		s.notifier.NotifyFailed(ctx, task, reason)
	}
	s.finish(ctx, task, model.TranscodeFailed, reason)
}

func (s *videoPipelineImpl) uploadFile(ctx context.Context, path, dir, ext, contentType string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()
	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	objectName := dir + time.Now().Format(s.prefixFormat) + uuid.NewString() + ext
	return s.storage.Upload(ctx, objectName, f, info.Size(), contentType)
}

func (s *videoPipelineImpl) deleteObjects(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.storage.Delete(ctx, key); err != nil {
			log.WarnContext(ctx, "failed to delete orphan artifact", "key", key, "err", err)
		}
	}
}

func (s *videoPipelineImpl) markRunning(ctx context.Context, task *TranscodeTask) {
	if s.jobs == nil {
		return
	}
	if err := s.jobs.MarkRunning(ctx, task.JobID); err != nil {
		log.WarnContext(ctx, "failed to mark transcode job running", "jobID", task.JobID, "err", err)
	}
}

func (s *videoPipelineImpl) finish(ctx context.Context, task *TranscodeTask, status, reason string) {
	if s.jobs == nil {
		return
	}
	if err := s.jobs.MarkFinished(ctx, task.JobID, status, reason); err != nil {
		log.WarnContext(ctx, "failed to update transcode job", "jobID", task.JobID, "status", status, "err", err)
	}
}

// failureReason 面向客户端的失败原因，只暴露阶段名，完整错误链（含 ffmpeg 输出和临时路径）只进日志
func failureReason(err error) string {
	return failureReasonPrefix + failureCategory(err)
}

func failureCategory(err error) string {
	switch {
	case err == nil:
		return "unknown error"
	case errors.Is(err, ErrQueueFull):
		return ErrQueueFull.Error()
	case errors.Is(err, ErrDispatcherClosed):
		return ErrDispatcherClosed.Error()
	case errors.Is(err, ErrTranscodeAbandoned):
		return ErrTranscodeAbandoned.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out"
	}
	if stage, ok := media.StageOf(err); ok {
		return stage
	}
	return "internal error"
}
