package cron

import (
	"Vista/internal/api/config"
	"Vista/internal/job"
	"testing"
	"time"
)

func TestRegisterJobs(t *testing.T) {
	cfg := config.CronConfig{StaleJobSpec: "0 */10 * * * *", ScratchCleanSpec: "0 0 * * * *"}
	mgr := NewCronManager(cfg, job.NewStaleTranscodeJob(nil, time.Hour), job.NewScratchCleanJob(t.TempDir(), time.Hour))
	if err := mgr.RegisterJobs(); err != nil {
		t.Fatalf("register: %v", err)
	}
	if n := len(mgr.engine.Entries()); n != 2 {
		t.Fatalf("expected 2 entries, got %d", n)
	}
}

func TestRegisterJobsSkipsEmptySpec(t *testing.T) {
	mgr := NewCronManager(config.CronConfig{ScratchCleanSpec: "@hourly"}, nil, job.NewScratchCleanJob(t.TempDir(), time.Hour))
	if err := mgr.RegisterJobs(); err != nil {
		t.Fatalf("register: %v", err)
	}
	if n := len(mgr.engine.Entries()); n != 1 {
		t.Fatalf("expected 1 entry, got %d", n)
	}
}

func TestRegisterJobsRejectsBadSpec(t *testing.T) {
	mgr := NewCronManager(config.CronConfig{StaleJobSpec: "every ten minutes"}, job.NewStaleTranscodeJob(nil, 0), nil)
	if err := mgr.RegisterJobs(); err == nil {
		t.Fatal("expected parse error")
	}
}
