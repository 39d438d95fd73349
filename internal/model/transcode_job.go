package model

import (
	"time"
)

const (
	TranscodeQueued    = "queued"
	TranscodeRunning   = "running"
	TranscodeCompleted = "completed"
	TranscodeFailed    = "failed"
)

// TranscodeJob 转码任务台账，记录任务与帖子媒体的绑定以及执行结果
type TranscodeJob struct {
	ID         uint64     `gorm:"primaryKey" json:"id"`
	JobID      string     `gorm:"type:char(36);not null;uniqueIndex" json:"job_id"`
	PostID     string     `gorm:"type:char(24);not null;index" json:"post_id"`
	MediaIndex int        `gorm:"not null" json:"media_index"`
	AuthorID   uint64     `gorm:"not null;index" json:"author_id"`
	Filename   string     `gorm:"type:varchar(255);not null" json:"filename"`
	SourceKey  string     `gorm:"type:varchar(512)" json:"source_key"`
	Status     string     `gorm:"type:varchar(16);not null;index:idx_status_created,priority:1" json:"status"` // queued, running, completed, failed
	Error      string     `gorm:"type:varchar(1024)" json:"error"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	CreatedAt  time.Time  `gorm:"index:idx_status_created,priority:2" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (TranscodeJob) TableName() string {
	return "transcode_jobs"
}
