package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostModel 帖子文档，媒体列表内嵌且保持提交顺序
type PostModel struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	AuthorID   uint64             `bson:"author_id" json:"authorId"`
	Caption    string             `bson:"caption" json:"caption"`
	Media      []MediaItem        `bson:"media" json:"media"`
	MediaCount int                `bson:"media_count" json:"mediaCount"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}

// MediaItem 帖子中的单个媒体
type MediaItem struct {
	Kind            string     `bson:"kind" json:"kind"`                          // image | video
	ObjectKey       string     `bson:"object_key" json:"objectKey"`               // 视频在转码完成前指向原始上传
	ThumbnailKey    *string    `bson:"thumbnail_key" json:"thumbnailKey"`         // 仅视频，完成后写入
	DurationSeconds *float64   `bson:"duration_seconds" json:"durationSeconds"`   // 仅视频，完成后写入
	Order           int        `bson:"order" json:"order"`                        // 提交顺序
	ProcessingState string     `bson:"processing_state" json:"processingState"`   // pending | completed | failed
	ContentType     string     `bson:"content_type" json:"contentType"`           // 最终产物的类型
	OriginalName    string     `bson:"original_name" json:"originalName"`         // 客户端上传的文件名
	JobID           string     `bson:"job_id,omitempty" json:"jobId,omitempty"`   // 转码任务ID
	SourceKey       string     `bson:"source_key,omitempty" json:"-"`             // 原始上传对象，完成后删除
	Error           string     `bson:"error,omitempty" json:"error,omitempty"`    // 失败原因
	ProcessedAt     *time.Time `bson:"processed_at,omitempty" json:"processedAt"` // 进入终态的时间
}

// MediaRef 转码任务与其所属媒体的绑定关系
type MediaRef struct {
	PostID primitive.ObjectID
	Index  int
	JobID  string
}

// MediaCompletion 转码成功后写回的字段
type MediaCompletion struct {
	ObjectKey       string
	ThumbnailKey    string
	ContentType     string
	DurationSeconds float64
}
