package job

import (
	"Vista/internal/pkg/logger"
	"Vista/internal/pkg/media"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// ScratchCleanJob 清理进程崩溃后遗留的转码临时文件
type ScratchCleanJob struct {
	dir    string
	maxAge time.Duration
}

func NewScratchCleanJob(dir string, maxAge time.Duration) *ScratchCleanJob {
	return &ScratchCleanJob{
		dir:    dir,
		maxAge: maxAge,
	}
}

func (s *ScratchCleanJob) Run() {
	ctx := logger.WithTraceID(context.Background(), "job-scratch-"+uuid.NewString())

	count, err := media.SweepScratch(s.dir, s.maxAge, time.Now())
	if err != nil {
		log.WarnContext(ctx, "scratch cleanup finished with errors", "dir", media.ScratchRoot(s.dir), "removed", count, "err", err)
		return
	}
	if count > 0 {
		log.InfoContext(ctx, "scratch cleanup job finished", "removed", count)
	}
}
