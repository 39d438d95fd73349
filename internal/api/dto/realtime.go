package dto

const (
	EventVideoProcessingComplete = "videoProcessingComplete"
	EventVideoProcessingFailed   = "videoProcessingFailed"
)

// RealtimeEvent 推送给客户端的消息信封
type RealtimeEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type VideoProcessingCompleteDTO struct {
	PostID     string       `json:"postId"`
	MediaIndex int          `json:"mediaIndex"`
	VideoData  VideoDataDTO `json:"videoData"`
}

type VideoDataDTO struct {
	URL       string  `json:"url"`
	Thumbnail string  `json:"thumbnail"`
	Duration  float64 `json:"duration"`
}

type VideoProcessingFailedDTO struct {
	PostID     string `json:"postId"`
	MediaIndex int    `json:"mediaIndex"`
	Error      string `json:"error"`
}
