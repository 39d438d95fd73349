package repository

import (
	"Vista/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type TranscodeJobRepo interface {
	CreateJobs(ctx context.Context, jobs []*model.TranscodeJob) error
	GetJob(ctx context.Context, jobID string) (*model.TranscodeJob, error)
	MarkRunning(ctx context.Context, jobID string) error
	MarkFinished(ctx context.Context, jobID string, status string, errMsg string) error
	ListStale(ctx context.Context, createdBefore time.Time, limit int) ([]*model.TranscodeJob, error)
}

type TranscodeJobRepoImpl struct {
	db *gorm.DB
}

func NewTranscodeJobRepo(db *gorm.DB) TranscodeJobRepo {
	return &TranscodeJobRepoImpl{
		db: db,
	}
}

func (s *TranscodeJobRepoImpl) CreateJobs(ctx context.Context, jobs []*model.TranscodeJob) error {
	if len(jobs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(jobs).Error
}

func (s *TranscodeJobRepoImpl) GetJob(ctx context.Context, jobID string) (*model.TranscodeJob, error) {
	var job model.TranscodeJob
	err := s.db.WithContext(ctx).Where("job_id = ?", jobID).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkRunning 仅 queued 状态可进入 running
func (s *TranscodeJobRepoImpl) MarkRunning(ctx context.Context, jobID string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&model.TranscodeJob{}).
		Where("job_id = ? AND status = ?", jobID, model.TranscodeQueued).
		Updates(map[string]interface{}{
			"status":     model.TranscodeRunning,
			"started_at": now,
		}).Error
}

// MarkFinished 终态只写一次
func (s *TranscodeJobRepoImpl) MarkFinished(ctx context.Context, jobID string, status string, errMsg string) error {
	if len(errMsg) > 1024 {
		errMsg = errMsg[:1024]
	}
	now := time.Now()
	return s.db.WithContext(ctx).Model(&model.TranscodeJob{}).
		Where("job_id = ? AND status IN ?", jobID, []string{model.TranscodeQueued, model.TranscodeRunning}).
		Updates(map[string]interface{}{
			"status":      status,
			"error":       errMsg,
			"finished_at": now,
		}).Error
}

// ListStale 查询创建早于 createdBefore 仍未结束的任务
func (s *TranscodeJobRepoImpl) ListStale(ctx context.Context, createdBefore time.Time, limit int) ([]*model.TranscodeJob, error) {
	var jobs []*model.TranscodeJob
	err := s.db.WithContext(ctx).
		Where("status IN ? AND created_at < ?", []string{model.TranscodeQueued, model.TranscodeRunning}, createdBefore).
		Order("id ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}
