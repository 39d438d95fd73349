package service

import (
	"Vista/internal/api/config"
	"Vista/internal/pkg/consts"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"
)

type postServiceFixture struct {
	svc        PostService
	posts      *fakePostRepo
	userPosts  *fakeUserPostRepo
	jobs       *fakeJobRepo
	storage    *fakeStorage
	images     *fakeImageProcessor
	dispatcher *fakeDispatcher
	pipeline   *fakePipeline
}

func newPostServiceFixture() *postServiceFixture {
	f := &postServiceFixture{
		posts:      newFakePostRepo(),
		userPosts:  &fakeUserPostRepo{},
		jobs:       newFakeJobRepo(),
		storage:    newFakeStorage(),
		images:     &fakeImageProcessor{},
		dispatcher: &fakeDispatcher{},
		pipeline:   newFakePipeline(),
	}
	cfg := config.MediaConfig{
		MaxFiles:          10,
		MaxFileSize:       1 << 20,
		AllowedVideoTypes: []string{"video/mp4", "video/quicktime", "video/x-msvideo"},
	}
	f.svc = NewPostService(f.posts, f.userPosts, f.jobs, f.storage, f.images, f.dispatcher, f.pipeline, cfg)
	return f
}

func upload(name, contentType, body string) *MediaUpload {
	return &MediaUpload{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte(body))), nil
		},
	}
}

func TestCreatePostRejectsFileCount(t *testing.T) {
	f := newPostServiceFixture()

	if _, err := f.svc.CreatePost(context.Background(), 1, "", nil); !errors.Is(err, ErrNoMedia) {
		t.Fatalf("expected ErrNoMedia, got %v", err)
	}

	var files []*MediaUpload
	for i := 0; i < 11; i++ {
		files = append(files, upload(fmt.Sprintf("p%d.png", i), "image/png", "img"))
	}
	if _, err := f.svc.CreatePost(context.Background(), 1, "", files); !errors.Is(err, ErrTooManyMedia) {
		t.Fatalf("expected ErrTooManyMedia, got %v", err)
	}
	if f.posts.created != 0 {
		t.Fatalf("no post should be created, got %d", f.posts.created)
	}
	if code, _ := CodeOf(fmt.Errorf("wrapped: %w", ErrTooManyMedia)); code != BadRequest {
		t.Fatalf("expected %d, got %d", BadRequest, code)
	}
}

func TestCreatePostKeepsSubmissionOrderForTenFiles(t *testing.T) {
	f := newPostServiceFixture()

	var files []*MediaUpload
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			files = append(files, upload(fmt.Sprintf("img%d.png", i), "image/png", fmt.Sprintf("image-%d", i)))
		} else {
			files = append(files, upload(fmt.Sprintf("clip%d.mp4", i), "video/mp4", fmt.Sprintf("video-%d", i)))
		}
	}

	post, err := f.svc.CreatePost(context.Background(), 7, "ten", files)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if len(post.Media) != 10 || post.MediaCount != 10 {
		t.Fatalf("expected 10 media entries, got %d (count %d)", len(post.Media), post.MediaCount)
	}
	for i, m := range post.Media {
		if m.Order != i {
			t.Fatalf("entry %d has order %d", i, m.Order)
		}
		wantKind := consts.MediaKindImage
		if i%2 == 1 {
			wantKind = consts.MediaKindVideo
		}
		if m.Kind != wantKind {
			t.Fatalf("entry %d: expected kind %s, got %s", i, wantKind, m.Kind)
		}
	}
	if len(f.dispatcher.submitted) != 5 {
		t.Fatalf("expected 5 transcode tasks, got %d", len(f.dispatcher.submitted))
	}
	for _, task := range f.dispatcher.submitted {
		if task.MediaIndex%2 != 1 {
			t.Fatalf("task routed to image slot %d", task.MediaIndex)
		}
		if task.PostID.Hex() != post.ID {
			t.Fatalf("task bound to %s, want %s", task.PostID.Hex(), post.ID)
		}
	}
}

func TestCreatePostImagesCompletedVideoPending(t *testing.T) {
	f := newPostServiceFixture()
	files := []*MediaUpload{
		upload("a.png", "image/png", "a"),
		upload("b.jpg", "image/jpeg", "b"),
		upload("c.mov", "video/quicktime", "movie"),
	}

	post, err := f.svc.CreatePost(context.Background(), 3, "mixed", files)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.Media[0].ProcessingState != consts.ProcessingCompleted || post.Media[1].ProcessingState != consts.ProcessingCompleted {
		t.Fatal("images must be completed")
	}
	video := post.Media[2]
	if video.ProcessingState != consts.ProcessingPending {
		t.Fatalf("video state %s", video.ProcessingState)
	}
	if !strings.Contains(video.SourceURL, consts.ObjectDirOriginal) {
		t.Fatalf("pending video should point at the original upload, got %q", video.SourceURL)
	}
	if video.ThumbnailURL != nil || video.DurationSeconds != nil {
		t.Fatal("pending video must not carry thumbnail or duration")
	}
	if len(f.storage.keysWithPrefix(consts.ObjectDirImage)) != 2 {
		t.Fatal("expected two processed images in storage")
	}

	task := f.dispatcher.submitted[0]
	if task.MediaIndex != 2 || string(task.Data) != "movie" {
		t.Fatalf("unexpected task %+v", task)
	}
	if f.jobs.status(task.JobID) == "" {
		t.Fatal("job ledger row missing")
	}
	if f.userPosts.added != 1 {
		t.Fatal("post not appended to author collection")
	}

	status, err := f.svc.GetProcessingStatus(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.IsProcessing || status.ProcessingCount != 1 || status.HasFailures {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestCreatePostRejectsUnsupportedVideo(t *testing.T) {
	f := newPostServiceFixture()
	files := []*MediaUpload{
		upload("ok.png", "image/png", "a"),
		upload("clip.mkv", "video/x-matroska", "v"),
	}

	_, err := f.svc.CreatePost(context.Background(), 1, "", files)
	if !errors.Is(err, ErrVideoNotSupported) {
		t.Fatalf("expected ErrVideoNotSupported, got %v", err)
	}
	var fileErr *MediaFileError
	if !errors.As(err, &fileErr) || fileErr.Filename != "clip.mkv" {
		t.Fatalf("error should name the file, got %v", err)
	}
	if len(f.storage.keysWithPrefix("")) != 0 {
		t.Fatal("nothing should be uploaded before validation passes")
	}
}

func TestCreatePostRejectsUnknownTypeAndOversize(t *testing.T) {
	f := newPostServiceFixture()

	_, err := f.svc.CreatePost(context.Background(), 1, "", []*MediaUpload{upload("doc.pdf", "application/pdf", "x")})
	if !errors.Is(err, ErrFileNotSupported) {
		t.Fatalf("expected ErrFileNotSupported, got %v", err)
	}

	big := upload("big.png", "image/png", "x")
	big.Size = 2 << 20
	_, err = f.svc.CreatePost(context.Background(), 1, "", []*MediaUpload{big})
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if code, _ := CodeOf(err); code != TooLarge {
		t.Fatalf("expected %d, got %d", TooLarge, code)
	}
}

func TestCreatePostAcceptsContentTypeParameters(t *testing.T) {
	f := newPostServiceFixture()
	files := []*MediaUpload{upload("clip.MP4", "Video/MP4; codecs=avc1", "v")}

	post, err := f.svc.CreatePost(context.Background(), 1, "", files)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.Media[0].Kind != consts.MediaKindVideo {
		t.Fatalf("expected video, got %s", post.Media[0].Kind)
	}
}

func TestCreatePostImageFailureAbortsRequest(t *testing.T) {
	f := newPostServiceFixture()
	f.images.failOn = "corrupt"
	files := []*MediaUpload{
		upload("good.png", "image/png", "fine"),
		upload("clip.mp4", "video/mp4", "video"),
		upload("bad.png", "image/png", "corrupt"),
	}

	_, err := f.svc.CreatePost(context.Background(), 1, "", files)
	if !errors.Is(err, ErrImageProcessing) {
		t.Fatalf("expected ErrImageProcessing, got %v", err)
	}
	if !strings.Contains(err.Error(), "bad.png") {
		t.Fatalf("error should name the failing file: %v", err)
	}
	if f.posts.created != 0 {
		t.Fatal("post must not be created")
	}
	if len(f.dispatcher.submitted) != 0 {
		t.Fatal("no video should be dispatched")
	}
	if len(f.storage.keysWithPrefix(consts.ObjectDirOriginal)) != 0 {
		t.Fatal("no original video should be uploaded")
	}
	waitFor(t, time.Second, func() bool {
		return len(f.storage.keysWithPrefix(consts.ObjectDirImage)) == 0
	})
}

func TestCreatePostSubmitFailureStillCreatesPost(t *testing.T) {
	f := newPostServiceFixture()
	f.dispatcher.err = ErrQueueFull

	post, err := f.svc.CreatePost(context.Background(), 1, "", []*MediaUpload{upload("clip.mp4", "video/mp4", "v")})
	if err != nil {
		t.Fatalf("video handoff failure must not fail the request: %v", err)
	}
	if post.Media[0].ProcessingState != consts.ProcessingPending {
		t.Fatalf("expected pending, got %s", post.Media[0].ProcessingState)
	}

	waitForJob(t, f.pipeline.done, time.Second)
	failed, causes := f.pipeline.failures()
	if len(failed) != 1 || !errors.Is(causes[0], ErrQueueFull) {
		t.Fatalf("expected one failure with ErrQueueFull, got %v", causes)
	}
	if failed[0].Data != nil {
		t.Fatal("failed task should not retain upload bytes")
	}
}

func TestCreatePostOriginalUploadFailureIsNotFatal(t *testing.T) {
	f := newPostServiceFixture()
	f.storage.uploadErr = errors.New("minio down")
	f.storage.failOn = consts.ObjectDirOriginal

	post, err := f.svc.CreatePost(context.Background(), 1, "", []*MediaUpload{upload("clip.mp4", "video/mp4", "v")})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.Media[0].SourceURL != "" {
		t.Fatalf("expected empty source url, got %q", post.Media[0].SourceURL)
	}
	if len(f.dispatcher.submitted) != 1 || string(f.dispatcher.submitted[0].Data) != "v" {
		t.Fatal("task should still be dispatched with in-memory bytes")
	}
}

func TestCreatePostPersistFailureRollsBackUploads(t *testing.T) {
	f := newPostServiceFixture()
	f.posts.failErr = errors.New("mongo unavailable")

	_, err := f.svc.CreatePost(context.Background(), 1, "", []*MediaUpload{
		upload("a.png", "image/png", "a"),
		upload("clip.mp4", "video/mp4", "v"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := CodeOf(err); ok {
		t.Fatalf("storage errors should not map to a client code: %v", err)
	}
	if len(f.dispatcher.submitted) != 0 {
		t.Fatal("no task should be dispatched without a post")
	}
	waitFor(t, time.Second, func() bool {
		return len(f.storage.keysWithPrefix("")) == 0
	})
}

func TestDeletePost(t *testing.T) {
	f := newPostServiceFixture()
	post, err := f.svc.CreatePost(context.Background(), 5, "", []*MediaUpload{upload("a.png", "image/png", "a")})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if err = f.svc.DeletePost(context.Background(), 6, post.ID); !errors.Is(err, ForbiddenError) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
	if err = f.svc.DeletePost(context.Background(), 5, post.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err = f.svc.GetPost(context.Background(), post.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	if err = f.svc.DeletePost(context.Background(), 5, "not-an-id"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound for malformed id, got %v", err)
	}
	waitFor(t, time.Second, func() bool {
		return len(f.storage.keysWithPrefix(consts.ObjectDirImage)) == 0
	})
}

func TestListUserPosts(t *testing.T) {
	f := newPostServiceFixture()
	var ids []string
	for i := 0; i < 3; i++ {
		post, err := f.svc.CreatePost(context.Background(), 9, fmt.Sprint(i), []*MediaUpload{upload("a.png", "image/png", "a")})
		if err != nil {
			t.Fatalf("create post: %v", err)
		}
		ids = append(ids, post.ID)
	}

	page, err := f.svc.ListUserPosts(context.Background(), 9, "", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Posts) != 2 || page.Posts[0].ID != ids[2] || page.Posts[1].ID != ids[1] {
		t.Fatalf("unexpected first page %+v", page.Posts)
	}
	if page.NextCursor == "" {
		t.Fatal("expected a cursor for the next page")
	}

	page, err = f.svc.ListUserPosts(context.Background(), 9, page.NextCursor, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Posts) != 1 || page.Posts[0].ID != ids[0] || page.NextCursor != "" {
		t.Fatalf("unexpected last page %+v (next %q)", page.Posts, page.NextCursor)
	}

	if _, err = f.svc.ListUserPosts(context.Background(), 9, "%%%", 2); !errors.Is(err, ErrParamInvalid) {
		t.Fatalf("expected ErrParamInvalid for a bad cursor, got %v", err)
	}
}
