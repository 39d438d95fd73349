package service

import (
	"Vista/internal/pkg/logger"
	"context"
	"fmt"
	log "log/slog"
	"runtime/debug"
	"sync"
	"time"
)

const (
	defaultTranscodeWorkers   = 2
	defaultTranscodeQueueSize = 64
)

// TranscodeDispatcher 有界队列 + 固定数量的工作协程。
// 任务与请求生命周期无关；单个任务的 panic 会被捕获并转为失败。
type TranscodeDispatcher interface {
	Start()
	Submit(task *TranscodeTask) error
	Pending() int
	Shutdown(ctx context.Context) error
}

type TranscodeDispatcherConfig struct {
	Workers   int
	QueueSize int
	// Timeout 单任务超时，0 表示不限制
	Timeout time.Duration
}

type transcodeDispatcherImpl struct {
	pipeline VideoPipeline
	workers  int
	timeout  time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	queue chan *TranscodeTask
	wg    sync.WaitGroup

	mu      sync.Mutex
	started bool
	closed  bool
}

func NewTranscodeDispatcher(pipeline VideoPipeline, cfg TranscodeDispatcherConfig) TranscodeDispatcher {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultTranscodeWorkers
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultTranscodeQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &transcodeDispatcherImpl{
		pipeline: pipeline,
		workers:  workers,
		timeout:  cfg.Timeout,
		ctx:      ctx,
		cancel:   cancel,
		queue:    make(chan *TranscodeTask, queueSize),
	}
}

func (s *transcodeDispatcherImpl) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	log.Info("transcode dispatcher started", "workers", s.workers, "queue", cap(s.queue))
}

// Submit 非阻塞入队，队列满或已关闭时立即返回错误
func (s *transcodeDispatcherImpl) Submit(task *TranscodeTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrDispatcherClosed
	}
	select {
	case s.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *transcodeDispatcherImpl) Pending() int {
	return len(s.queue)
}

// Shutdown 停止接收新任务并等待已入队任务执行完；ctx 到期后取消仍在执行的任务
func (s *transcodeDispatcherImpl) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}

func (s *transcodeDispatcherImpl) worker() {
	defer s.wg.Done()
	for task := range s.queue {
		s.runTask(task)
	}
}

func (s *transcodeDispatcherImpl) runTask(task *TranscodeTask) {
	traceID := task.TraceID
	if traceID == "" {
		traceID = "job-" + task.JobID
	}
	ctx := logger.WithTraceID(s.ctx, traceID)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	defer func() {
		task.Data = nil
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "transcode task panicked", "jobID", task.JobID, "panic", r, "stack", string(debug.Stack()))
			s.pipeline.Fail(ctx, task, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := s.pipeline.Run(ctx, task); err != nil {
		log.DebugContext(ctx, "transcode task finished with error", "jobID", task.JobID, "err", err)
	}
}
