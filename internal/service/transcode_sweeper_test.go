package service

import (
	"Vista/internal/model"
	"Vista/internal/pkg/consts"
	"context"
	"testing"
	"time"
)

func TestSweeperFailsStaleJobs(t *testing.T) {
	f := newPipelineFixture()
	task := f.seedPending(t)
	f.jobs.stale = []*model.TranscodeJob{
		task.ledgerRow(),
		{JobID: "broken", PostID: "not-hex"},
	}

	sweeper := NewTranscodeSweeper(f.jobs, f.pipeline)
	n, err := sweeper.FailStale(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 job failed, got %d", n)
	}

	item := f.posts.media(t, task.PostID, 1)
	if item.ProcessingState != consts.ProcessingFailed {
		t.Fatalf("expected failed, got %s", item.ProcessingState)
	}
	if item.Error != failureReason(ErrTranscodeAbandoned) {
		t.Fatalf("unexpected reason %q", item.Error)
	}
	if got := f.jobs.status(task.JobID); got != model.TranscodeFailed {
		t.Fatalf("ledger status %s", got)
	}
	if len(f.publisher.snapshot()) != 1 {
		t.Fatal("author should be notified once")
	}
}
