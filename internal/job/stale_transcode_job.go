package job

import (
	"Vista/internal/pkg/consts"
	"Vista/internal/pkg/logger"
	"Vista/internal/pkg/redis"
	"Vista/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// StaleTranscodeJob 多实例部署时通过 redis 锁保证同一时刻只有一个实例在扫描
type StaleTranscodeJob struct {
	sweeper service.TranscodeSweeper
	after   time.Duration
}

func NewStaleTranscodeJob(sweeper service.TranscodeSweeper, after time.Duration) *StaleTranscodeJob {
	if after <= 0 {
		after = time.Hour
	}
	return &StaleTranscodeJob{
		sweeper: sweeper,
		after:   after,
	}
}

func (s *StaleTranscodeJob) Run() {
	traceID := "job-stale-" + uuid.NewString()
	ctx, cancel := context.WithTimeout(logger.WithTraceID(context.Background(), traceID), 5*time.Minute)
	defer cancel()

	ok, err := redis.TryLock(ctx, consts.StaleTranscodeLock, traceID, 5*time.Minute, 1)
	if err != nil {
		log.ErrorContext(ctx, "failed to acquire stale transcode lock", "err", err)
		return
	}
	if !ok {
		return
	}
	defer redis.UnLock(context.Background(), consts.StaleTranscodeLock, traceID)

	count, err := s.sweeper.FailStale(ctx, time.Now().Add(-s.after))
	if err != nil {
		log.ErrorContext(ctx, "stale transcode sweep error", "err", err)
		return
	}
	if count > 0 {
		log.InfoContext(ctx, "stale transcode jobs marked failed", "count", count)
	}
}
