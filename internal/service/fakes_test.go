package service

import (
	"Vista/internal/api/dto"
	"Vista/internal/model"
	"Vista/internal/pkg/consts"
	"Vista/internal/pkg/media"
	"Vista/internal/pkg/mongo"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakePostRepo struct {
	mu      sync.Mutex
	posts   map[primitive.ObjectID]*mongo.PostModel
	created int
	failErr error
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[primitive.ObjectID]*mongo.PostModel)}
}

func (r *fakePostRepo) EnsureIndexes(context.Context) error { return nil }

func (r *fakePostRepo) CreatePost(_ context.Context, post *mongo.PostModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	post.MediaCount = len(post.Media)
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	cp := *post
	cp.Media = append([]mongo.MediaItem(nil), post.Media...)
	r.posts[post.ID] = &cp
	r.created++
	return nil
}

func (r *fakePostRepo) GetPost(_ context.Context, id primitive.ObjectID) (*mongo.PostModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *post
	cp.Media = append([]mongo.MediaItem(nil), post.Media...)
	return &cp, nil
}

func (r *fakePostRepo) DeletePost(_ context.Context, id primitive.ObjectID, authorID uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok || post.AuthorID != authorID {
		return false, nil
	}
	delete(r.posts, id)
	return true, nil
}

func (r *fakePostRepo) CompleteMedia(_ context.Context, ref mongo.MediaRef, result mongo.MediaCompletion) (bool, error) {
	return r.transition(ref, func(m *mongo.MediaItem) {
		thumb := result.ThumbnailKey
		duration := result.DurationSeconds
		m.ObjectKey = result.ObjectKey
		m.ThumbnailKey = &thumb
		m.DurationSeconds = &duration
		m.ContentType = result.ContentType
		m.ProcessingState = consts.ProcessingCompleted
	})
}

func (r *fakePostRepo) FailMedia(_ context.Context, ref mongo.MediaRef, reason string) (bool, error) {
	return r.transition(ref, func(m *mongo.MediaItem) {
		m.Error = reason
		m.ProcessingState = consts.ProcessingFailed
	})
}

// transition 与真实仓库相同的条件：帖子存在、job_id 匹配、仍为 pending
func (r *fakePostRepo) transition(ref mongo.MediaRef, apply func(m *mongo.MediaItem)) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[ref.PostID]
	if !ok || ref.Index < 0 || ref.Index >= len(post.Media) {
		return false, nil
	}
	m := &post.Media[ref.Index]
	if m.JobID != ref.JobID || m.ProcessingState != consts.ProcessingPending {
		return false, nil
	}
	apply(m)
	return true, nil
}

func (r *fakePostRepo) media(t *testing.T, id primitive.ObjectID, index int) mongo.MediaItem {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		t.Fatalf("post %s not stored", id.Hex())
	}
	return post.Media[index]
}

type fakeUserPostRepo struct {
	mu    sync.Mutex
	rows  []*model.UserPost
	next  uint64
	added int
}

func (r *fakeUserPostRepo) AddUserPost(_ context.Context, userID uint64, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.rows = append(r.rows, &model.UserPost{ID: r.next, UserID: userID, PostID: postID})
	r.added++
	return nil
}

func (r *fakeUserPostRepo) RemoveUserPost(_ context.Context, userID uint64, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, row := range r.rows {
		if row.UserID == userID && row.PostID == postID {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeUserPostRepo) ListUserPostIDs(_ context.Context, userID uint64, beforeID uint64, limit int) ([]*model.UserPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.UserPost
	for i := len(r.rows) - 1; i >= 0 && len(out) < limit; i-- {
		row := r.rows[i]
		if row.UserID != userID || (beforeID > 0 && row.ID >= beforeID) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

type fakeJobRepo struct {
	mu     sync.Mutex
	jobs   map[string]*model.TranscodeJob
	stale  []*model.TranscodeJob
	failed map[string]string
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*model.TranscodeJob), failed: make(map[string]string)}
}

func (r *fakeJobRepo) CreateJobs(_ context.Context, jobs []*model.TranscodeJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range jobs {
		r.jobs[j.JobID] = j
	}
	return nil
}

func (r *fakeJobRepo) GetJob(_ context.Context, jobID string) (*model.TranscodeJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[jobID], nil
}

func (r *fakeJobRepo) MarkRunning(_ context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[jobID]; ok && j.Status == model.TranscodeQueued {
		j.Status = model.TranscodeRunning
	}
	return nil
}

func (r *fakeJobRepo) MarkFinished(_ context.Context, jobID string, status string, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[jobID]; ok && (j.Status == model.TranscodeQueued || j.Status == model.TranscodeRunning) {
		j.Status = status
		j.Error = errMsg
	}
	if status == model.TranscodeFailed {
		r.failed[jobID] = errMsg
	}
	return nil
}

func (r *fakeJobRepo) ListStale(_ context.Context, _ time.Time, limit int) ([]*model.TranscodeJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stale) > limit {
		return r.stale[:limit], nil
	}
	return r.stale, nil
}

func (r *fakeJobRepo) status(jobID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[jobID]; ok {
		return j.Status
	}
	return ""
}

type fakeStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleted   []string
	failOn    string
	uploadErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) Upload(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (string, error) {
	if s.uploadErr != nil && (s.failOn == "" || strings.HasPrefix(objectName, s.failOn)) {
		return "", s.uploadErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectName] = data
	return objectName, nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStorage) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	return "http://cdn.test/vista/" + key
}

func (s *fakeStorage) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func (s *fakeStorage) keysWithPrefix(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

func (s *fakeStorage) wasDeleted(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.deleted {
		if k == key {
			return true
		}
	}
	return false
}

type fakeImageProcessor struct {
	failOn string
}

func (p *fakeImageProcessor) Process(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if p.failOn != "" && bytes.Equal(data, []byte(p.failOn)) {
		return nil, errors.New("decode image: unknown format")
	}
	return append([]byte("jpeg:"), data...), nil
}

type fakeVideoProcessor struct {
	err      error
	duration float64
}

func (p *fakeVideoProcessor) Process(ctx context.Context, in media.VideoInput, handle func(ctx context.Context, out *media.VideoOutput) error) error {
	if p.err != nil {
		return p.err
	}
	if len(in.Data) == 0 {
		return errors.New("empty input")
	}
	dir, err := os.MkdirTemp("", "vista-test-")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.RemoveAll(dir)
	}()

	out := &media.VideoOutput{
		VideoPath:       dir + "/out.mp4",
		ThumbnailPath:   dir + "/thumb.jpg",
		DurationSeconds: p.duration,
	}
	if err = os.WriteFile(out.VideoPath, []byte("mp4"), 0o600); err != nil {
		return err
	}
	if err = os.WriteFile(out.ThumbnailPath, []byte("jpg"), 0o600); err != nil {
		return err
	}
	return handle(ctx, out)
}

type publishedEvent struct {
	userID uint64
	event  dto.RealtimeEvent
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(_ context.Context, userID uint64, event dto.RealtimeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{userID: userID, event: event})
	return nil
}

func (p *fakePublisher) snapshot() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

type fakeEventSink struct {
	mu     sync.Mutex
	events []dto.MediaEventMessage
}

func (s *fakeEventSink) PublishMediaEvent(_ context.Context, evt dto.MediaEventMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

func (s *fakeEventSink) snapshot() []dto.MediaEventMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]dto.MediaEventMessage(nil), s.events...)
}

type fakePipeline struct {
	mu      sync.Mutex
	ran     []*TranscodeTask
	failed  []*TranscodeTask
	causes  []error
	block   chan struct{}
	panicOn string
	done    chan string
}

func newFakePipeline() *fakePipeline {
	return &fakePipeline{done: make(chan string, 64)}
}

func (p *fakePipeline) Run(ctx context.Context, task *TranscodeTask) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
		}
	}
	if p.panicOn != "" && task.JobID == p.panicOn {
		panic("boom")
	}
	p.mu.Lock()
	p.ran = append(p.ran, task)
	p.mu.Unlock()
	p.done <- task.JobID
	return nil
}

func (p *fakePipeline) Fail(_ context.Context, task *TranscodeTask, cause error) {
	p.mu.Lock()
	p.failed = append(p.failed, task)
	p.causes = append(p.causes, cause)
	p.mu.Unlock()
	p.done <- task.JobID
}

func (p *fakePipeline) failures() ([]*TranscodeTask, []error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*TranscodeTask(nil), p.failed...), append([]error(nil), p.causes...)
}

type fakeDispatcher struct {
	mu        sync.Mutex
	submitted []*TranscodeTask
	err       error
}

func (d *fakeDispatcher) Start() {}

func (d *fakeDispatcher) Submit(task *TranscodeTask) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.submitted = append(d.submitted, task)
	return nil
}

func (d *fakeDispatcher) Pending() int { return 0 }

func (d *fakeDispatcher) Shutdown(context.Context) error { return nil }

func waitForJob(t *testing.T, done <-chan string, timeout time.Duration) string {
	t.Helper()
	select {
	case id := <-done:
		return id
	case <-time.After(timeout):
		t.Fatal("timed out waiting for job")
		return ""
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
