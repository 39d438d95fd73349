package logger

import (
	"Vista/internal/api/config"
	"io"
	log "log/slog"
	"os"
	"strings"
)

var LogWriter io.Writer = os.Stdout

// InitLogger 初始化全局 slog，输出 JSON 或文本到 stdout，并注入 trace_id
func InitLogger(cfg config.LogConfig) {
	opts := &log.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var h log.Handler
	if strings.EqualFold(cfg.Format, "text") {
		h = log.NewTextHandler(LogWriter, opts)
	} else {
		h = log.NewJSONHandler(LogWriter, opts)
	}

	log.SetDefault(log.New(&ContextHandler{h}))
}

// ParseLevel 未识别的级别按 info 处理
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.LevelDebug
	case "warn", "warning":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}
