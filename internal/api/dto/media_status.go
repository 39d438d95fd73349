package dto

// MediaStatusDTO 帖子媒体处理进度
type MediaStatusDTO struct {
	PostID          string      `json:"postId"`
	ProcessingCount int         `json:"processingCount"`
	FailedCount     int         `json:"failedCount"`
	IsProcessing    bool        `json:"isProcessing"`
	HasFailures     bool        `json:"hasFailures"`
	Media           []*MediaDTO `json:"media"`
}
