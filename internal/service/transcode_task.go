package service

import (
	"Vista/internal/model"
	"Vista/internal/pkg/mongo"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TranscodeTask 一个视频转码任务，按 JobID 路由回所属帖子的媒体位置
type TranscodeTask struct {
	JobID       string
	PostID      primitive.ObjectID
	MediaIndex  int
	AuthorID    uint64
	Filename    string
	ContentType string
	SourceKey   string
	TraceID     string
	Data        []byte
}

func (t *TranscodeTask) Ref() mongo.MediaRef {
	return mongo.MediaRef{PostID: t.PostID, Index: t.MediaIndex, JobID: t.JobID}
}

func (t *TranscodeTask) ledgerRow() *model.TranscodeJob {
	return &model.TranscodeJob{
		JobID:      t.JobID,
		PostID:     t.PostID.Hex(),
		MediaIndex: t.MediaIndex,
		AuthorID:   t.AuthorID,
		Filename:   t.Filename,
		SourceKey:  t.SourceKey,
		Status:     model.TranscodeQueued,
	}
}

// taskFromLedger 台账行还原出的任务不含原始数据，只能走失败路径
func taskFromLedger(job *model.TranscodeJob) (*TranscodeTask, error) {
	postID, err := primitive.ObjectIDFromHex(job.PostID)
	if err != nil {
		return nil, err
	}
	return &TranscodeTask{
		JobID:      job.JobID,
		PostID:     postID,
		MediaIndex: job.MediaIndex,
		AuthorID:   job.AuthorID,
		Filename:   job.Filename,
		SourceKey:  job.SourceKey,
	}, nil
}
