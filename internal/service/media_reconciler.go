package service

import (
	"Vista/internal/pkg/mongo"
	"context"
	log "log/slog"
)

// MediaReconciler 把转码结果写回帖子中对应的媒体。
// 只有仍处于 pending 且 job_id 匹配的媒体会被修改，未命中时返回 false 且不报错。
type MediaReconciler interface {
	Complete(ctx context.Context, task *TranscodeTask, result mongo.MediaCompletion) (bool, error)
	Fail(ctx context.Context, task *TranscodeTask, reason string) (bool, error)
}

type mediaReconcilerImpl struct {
	posts mongo.PostRepo
}

func NewMediaReconciler(posts mongo.PostRepo) MediaReconciler {
	return &mediaReconcilerImpl{posts: posts}
}

func (s *mediaReconcilerImpl) Complete(ctx context.Context, task *TranscodeTask, result mongo.MediaCompletion) (bool, error) {
	matched, err := s.posts.CompleteMedia(ctx, task.Ref(), result)
	if err != nil {
		return false, err
	}
	if !matched {
		log.InfoContext(ctx, "reconcile miss, media no longer pending",
			"jobID", task.JobID, "postID", task.PostID.Hex(), "mediaIndex", task.MediaIndex)
	}
	return matched, nil
}

func (s *mediaReconcilerImpl) Fail(ctx context.Context, task *TranscodeTask, reason string) (bool, error) {
	matched, err := s.posts.FailMedia(ctx, task.Ref(), reason)
	if err != nil {
		return false, err
	}
	if !matched {
		log.InfoContext(ctx, "reconcile miss on failure, media no longer pending",
			"jobID", task.JobID, "postID", task.PostID.Hex(), "mediaIndex", task.MediaIndex)
	}
	return matched, nil
}
