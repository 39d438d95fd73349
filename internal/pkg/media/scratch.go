package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ScratchPrefix 所有临时文件的统一前缀，清理任务据此识别
const ScratchPrefix = "vista_"

const maxScratchNameLen = 64

// ScratchRoot 返回临时目录，未配置时落在系统临时目录下
func ScratchRoot(dir string) string {
	if strings.TrimSpace(dir) != "" {
		return dir
	}
	return filepath.Join(os.TempDir(), "vista-media")
}

// Scratch 单个任务的临时文件作用域，Cleanup 删除作用域内分配过的全部路径
type Scratch struct {
	dir string

	mu    sync.Mutex
	paths []string
}

func NewScratch(dir string) (*Scratch, error) {
	root := ScratchRoot(dir)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Scratch{dir: root}, nil
}

// Path 分配一个唯一路径：<前缀><角色>_<纳秒时间戳>_<随机串>_<清洗后的文件名><扩展名>
// ext 为空时沿用原文件扩展名
func (s *Scratch) Path(role, filename, ext string) string {
	base := filepath.Base(filename)
	origExt := filepath.Ext(base)
	if ext == "" {
		ext = origExt
	}
	stem := sanitizeName(strings.TrimSuffix(base, origExt))
	if ext != "" {
		ext = sanitizeName(ext)
	}

	name := fmt.Sprintf("%s%s_%d_%s_%s%s",
		ScratchPrefix, role, time.Now().UnixNano(), uuid.NewString()[:8], stem, ext)
	p := filepath.Join(s.dir, name)

	s.mu.Lock()
	s.paths = append(s.paths, p)
	s.mu.Unlock()
	return p
}

// Paths 当前已分配的路径
func (s *Scratch) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Cleanup 删除存在的文件，可重复调用
func (s *Scratch) Cleanup() error {
	s.mu.Lock()
	paths := s.paths
	s.paths = nil
	s.mu.Unlock()

	var errs []error
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SweepScratch 删除目录下超过 maxAge 的遗留临时文件，返回删除数量
func SweepScratch(dir string, maxAge time.Duration, now time.Time) (int, error) {
	root := ScratchRoot(dir)
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), ScratchPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err = os.Remove(filepath.Join(root, entry.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if len(out) > maxScratchNameLen {
		out = out[:maxScratchNameLen]
	}
	if out == "" {
		out = "file"
	}
	return out
}
