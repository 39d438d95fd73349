package cron

import (
	"Vista/internal/api/config"
	"Vista/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine          *cron.Cron
	cfg             config.CronConfig
	staleJob        *job.StaleTranscodeJob
	scratchCleanJob *job.ScratchCleanJob
}

func NewCronManager(cfg config.CronConfig, staleJob *job.StaleTranscodeJob, scratchCleanJob *job.ScratchCleanJob) *Manager {
	return &Manager{
		engine:          cron.New(cron.WithSeconds()),
		cfg:             cfg,
		staleJob:        staleJob,
		scratchCleanJob: scratchCleanJob,
	}
}

// RegisterJobs 注册定时任务，表达式为空的任务不注册
func (s *Manager) RegisterJobs() error {
	if s.cfg.StaleJobSpec != "" {
		if _, err := s.engine.AddJob(s.cfg.StaleJobSpec, s.staleJob); err != nil {
			return err
		}
	}
	if s.cfg.ScratchCleanSpec != "" {
		if _, err := s.engine.AddJob(s.cfg.ScratchCleanSpec, s.scratchCleanJob); err != nil {
			return err
		}
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动", "jobs", len(s.engine.Entries()))
	s.engine.Start()
}

// Stop 等待正在执行的任务结束
func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}
