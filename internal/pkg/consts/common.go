package consts

const (
	MimePrefixImage = "image"
	MimePrefixVideo = "video"
)

const (
	MediaKindImage = "image"
	MediaKindVideo = "video"
)

// 媒体处理状态，只允许 pending -> completed | failed 单向变化
const (
	ProcessingPending   = "pending"
	ProcessingCompleted = "completed"
	ProcessingFailed    = "failed"
)

const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypeMP4  = "video/mp4"
)

// 对象存储中的目录前缀
const (
	ObjectDirImage     = "images/"
	ObjectDirVideo     = "videos/"
	ObjectDirThumbnail = "thumbnails/"
	ObjectDirOriginal  = "originals/"
)

const (
	ContextUserID = "user_id"
	ContextRoles  = "roles"
)
