package dto

// MediaEventMessage 写入 Kafka 的媒体处理结果事件
type MediaEventMessage struct {
	Type            string  `json:"type"` // completed | failed
	JobID           string  `json:"jobId"`
	PostID          string  `json:"postId"`
	MediaIndex      int     `json:"mediaIndex"`
	AuthorID        uint64  `json:"authorId"`
	ObjectKey       string  `json:"objectKey,omitempty"`
	ThumbnailKey    string  `json:"thumbnailKey,omitempty"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	Error           string  `json:"error,omitempty"`
	OccurredAt      int64   `json:"occurredAt"`
}
