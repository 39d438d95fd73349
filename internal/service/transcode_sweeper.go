package service

import (
	"Vista/internal/repository"
	"context"
	log "log/slog"
	"time"
)

const staleSweepBatch = 100

// TranscodeSweeper 把长时间未结束的转码任务（进程重启丢失、工作协程卡死）收敛为失败，
// 使对应媒体不会永久停留在 pending
type TranscodeSweeper interface {
	FailStale(ctx context.Context, createdBefore time.Time) (int, error)
}

type transcodeSweeperImpl struct {
	jobs     repository.TranscodeJobRepo
	pipeline VideoPipeline
}

func NewTranscodeSweeper(jobs repository.TranscodeJobRepo, pipeline VideoPipeline) TranscodeSweeper {
	return &transcodeSweeperImpl{jobs: jobs, pipeline: pipeline}
}

func (s *transcodeSweeperImpl) FailStale(ctx context.Context, createdBefore time.Time) (int, error) {
	stale, err := s.jobs.ListStale(ctx, createdBefore, staleSweepBatch)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, job := range stale {
		task, err := taskFromLedger(job)
		if err != nil {
			log.WarnContext(ctx, "skip malformed transcode job", "jobID", job.JobID, "postID", job.PostID, "err", err)
			continue
		}
		s.pipeline.Fail(ctx, task, ErrTranscodeAbandoned)
		count++
	}
	return count, nil
}
