package media

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// ImageProcessor 同步图片处理：按比例缩放到限定框内并重新编码为 JPEG
type ImageProcessor struct {
	maxWidth  int
	maxHeight int
	quality   int
}

func NewImageProcessor(maxWidth, maxHeight, quality int) *ImageProcessor {
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	return &ImageProcessor{maxWidth: maxWidth, maxHeight: maxHeight, quality: quality}
}

// Process 解码（自动纠正方向）、缩放、编码，小于限定框的图片不放大
func (p *ImageProcessor) Process(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if p.maxWidth > 0 && p.maxHeight > 0 {
		img = imaging.Fit(img, p.maxWidth, p.maxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
