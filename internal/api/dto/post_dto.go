package dto

type PostDTO struct {
	ID         string      `json:"id"`
	AuthorID   uint64      `json:"authorId"`
	Caption    string      `json:"caption"`
	Media      []*MediaDTO `json:"media" copier:"-"`
	MediaCount int         `json:"mediaCount"`
	CreatedAt  string      `json:"createdAt"`
	UpdatedAt  string      `json:"updatedAt"`
}

// MediaDTO 对外展示的媒体，URL 由对象 key 推导
type MediaDTO struct {
	Kind            string   `json:"kind"`
	SourceURL       string   `json:"sourceUrl"`
	ThumbnailURL    *string  `json:"thumbnailUrl"`
	DurationSeconds *float64 `json:"durationSeconds"`
	Order           int      `json:"order"`
	ProcessingState string   `json:"processingState"`
	Error           string   `json:"error,omitempty"`
}

type PostListDTO struct {
	Posts      []*PostDTO `json:"posts"`
	NextCursor string     `json:"nextCursor"`
}
