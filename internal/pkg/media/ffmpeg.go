package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

var ErrUnknownDuration = errors.New("unknown or non-positive duration")

// Tool 封装对媒体文件的三个外部操作
type Tool interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
	Encode(ctx context.Context, in, out string, seconds float64) error
	ExtractFrame(ctx context.Context, in, out string, atSeconds float64) error
}

// FFmpeg 基于 ffprobe/ffmpeg 可执行文件的 Tool 实现
type FFmpeg struct {
	FFmpegPath  string
	FFprobePath string
	ThumbWidth  int
	ThumbHeight int
}

func NewFFmpeg(ffmpegPath, ffprobePath string, thumbWidth, thumbHeight int) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpeg{
		FFmpegPath:  ffmpegPath,
		FFprobePath: ffprobePath,
		ThumbWidth:  thumbWidth,
		ThumbHeight: thumbHeight,
	}
}

// ProbeDuration 获取视频时长（秒）
func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, f.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		"-i", path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w: %s", err, tail(stderr.String()))
	}
	return ParseDuration(string(out))
}

// ParseDuration 解析 ffprobe 输出，N/A、NaN 或非正数视为未知
func ParseDuration(raw string) (float64, error) {
	d, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return 0, ErrUnknownDuration
	}
	return d, nil
}

// Encode 按给定时长截取并转码为 H.264/AAC mp4
func (f *FFmpeg) Encode(ctx context.Context, in, out string, seconds float64) error {
	return f.run(ctx, EncodeArgs(in, out, seconds))
}

// ExtractFrame 在指定时间点截取一帧作为缩略图
func (f *FFmpeg) ExtractFrame(ctx context.Context, in, out string, atSeconds float64) error {
	return f.run(ctx, FrameArgs(in, out, atSeconds, f.ThumbWidth, f.ThumbHeight))
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, f.FFmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, tail(stderr.String()))
	}
	return nil
}

// EncodeArgs 构造转码参数
func EncodeArgs(in, out string, seconds float64) []string {
	return ffmpeg.Input(in).
		Output(out, ffmpeg.KwArgs{
			"t":        strconv.FormatFloat(seconds, 'f', 3, 64),
			"c:v":      "libx264",
			"c:a":      "aac",
			"preset":   "ultrafast",
			"crf":      28,
			"movflags": "+faststart",
			"threads":  0,
		}).
		OverWriteOutput().
		GetArgs()
}

// FrameArgs 构造截帧参数
func FrameArgs(in, out string, atSeconds float64, width, height int) []string {
	kw := ffmpeg.KwArgs{
		"ss":      strconv.FormatFloat(atSeconds, 'f', 0, 64),
		"vframes": 1,
		"q:v":     2,
	}
	if width > 0 && height > 0 {
		kw["vf"] = fmt.Sprintf("scale=%d:%d", width, height)
	}
	return ffmpeg.Input(in).Output(out, kw).OverWriteOutput().GetArgs()
}

// tail 截取 stderr 末尾，避免日志过长
func tail(s string) string {
	s = strings.TrimSpace(s)
	const limit = 512
	if len(s) > limit {
		return "..." + s[len(s)-limit:]
	}
	return s
}
