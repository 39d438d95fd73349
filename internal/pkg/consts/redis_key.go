package consts

const (
	// MediaUserChannel 用户实时媒体事件频道，后接用户ID
	MediaUserChannel        = "media:user:"
	MediaUserChannelPattern = "media:user:*"
	TokenBlacklistKey       = "token:blacklist:"
)

const (
	StaleTranscodeLock = "lock:transcode:stale"
)
