package media

import (
	"context"
	log "log/slog"
	"math"
	"os"
)

const DefaultMaxVideoSeconds = 60.0

// VideoInput 一次转码任务的原始数据
type VideoInput struct {
	Data     []byte
	Filename string
}

// VideoOutput 转码产物，路径只在回调期间有效
type VideoOutput struct {
	VideoPath       string
	ThumbnailPath   string
	ProbedSeconds   float64
	DurationSeconds float64
	ThumbnailAt     float64
}

// VideoProcessor 负责 探测 -> 截断转码 -> 截帧
type VideoProcessor struct {
	tool       Tool
	maxSeconds float64
	scratchDir string
}

func NewVideoProcessor(tool Tool, maxSeconds float64, scratchDir string) *VideoProcessor {
	if maxSeconds <= 0 {
		maxSeconds = DefaultMaxVideoSeconds
	}
	return &VideoProcessor{tool: tool, maxSeconds: maxSeconds, scratchDir: scratchDir}
}

// EffectiveDuration min(probed, max)
func EffectiveDuration(probed, max float64) float64 {
	return math.Min(probed, max)
}

// ThumbnailOffset 缩略图取成片中点，向下取整到秒
func ThumbnailOffset(effective float64) float64 {
	return math.Floor(effective / 2)
}

// Process 在独立的临时作用域内完成转码，并在产物仍存在时调用 handle。
// 无论成功与否，返回前都会清理临时文件。
func (p *VideoProcessor) Process(ctx context.Context, in VideoInput, handle func(ctx context.Context, out *VideoOutput) error) error {
	scratch, err := NewScratch(p.scratchDir)
	if err != nil {
		return err
	}
	defer func() {
		if cleanupErr := scratch.Cleanup(); cleanupErr != nil {
			log.WarnContext(ctx, "failed to cleanup scratch files", "filename", in.Filename, "err", cleanupErr)
		}
	}()

	inputPath := scratch.Path("input", in.Filename, "")
	outputPath := scratch.Path("output", in.Filename, ".mp4")
	thumbPath := scratch.Path("thumbnail", in.Filename, ".jpg")

	if err = os.WriteFile(inputPath, in.Data, 0o600); err != nil {
		return WrapStage(err, "write input")
	}

	probed, err := p.tool.ProbeDuration(ctx, inputPath)
	if err != nil {
		return WrapStage(err, "probe duration")
	}
	if probed <= 0 || math.IsNaN(probed) {
		return WrapStage(ErrUnknownDuration, "probe duration")
	}

	effective := EffectiveDuration(probed, p.maxSeconds)
	if err = p.tool.Encode(ctx, inputPath, outputPath, effective); err != nil {
		return WrapStage(err, "encode video")
	}

	at := ThumbnailOffset(effective)
	if err = p.tool.ExtractFrame(ctx, outputPath, thumbPath, at); err != nil {
		return WrapStage(err, "extract thumbnail")
	}

	if handle == nil {
		return nil
	}
	return handle(ctx, &VideoOutput{
		VideoPath:       outputPath,
		ThumbnailPath:   thumbPath,
		ProbedSeconds:   probed,
		DurationSeconds: effective,
		ThumbnailAt:     at,
	})
}
