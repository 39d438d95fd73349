package service

import (
	"Vista/internal/api/config"
	"Vista/internal/api/dto"
	"Vista/internal/model"
	"Vista/internal/pkg/consts"
	"Vista/internal/pkg/logger"
	"Vista/internal/pkg/mongo"
	"Vista/internal/pkg/util"
	"Vista/internal/repository"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultListLimit = 20

type PostService interface {
	CreatePost(ctx context.Context, authorID uint64, caption string, files []*MediaUpload) (*dto.PostDTO, error)
	GetPost(ctx context.Context, postID string) (*dto.PostDTO, error)
	ListUserPosts(ctx context.Context, userID uint64, cursor string, limit int) (*dto.PostListDTO, error)
	DeletePost(ctx context.Context, userID uint64, postID string) error
	GetProcessingStatus(ctx context.Context, postID string) (*dto.MediaStatusDTO, error)
}

// MediaUpload 请求中的一个上传文件，ContentType 为客户端声明的类型
type MediaUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FromFileHeader 由 multipart 文件头构造
func FromFileHeader(fh *multipart.FileHeader) *MediaUpload {
	return &MediaUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

type postServiceImpl struct {
	posts      mongo.PostRepo
	userPosts  repository.UserPostRepo
	jobs       repository.TranscodeJobRepo
	storage    ObjectStorage
	images     ImageProcessor
	dispatcher TranscodeDispatcher
	pipeline   VideoPipeline
	cfg        config.MediaConfig
	videoTypes map[string]struct{}
}

func NewPostService(posts mongo.PostRepo, userPosts repository.UserPostRepo, jobs repository.TranscodeJobRepo,
	storage ObjectStorage, images ImageProcessor, dispatcher TranscodeDispatcher, pipeline VideoPipeline,
	cfg config.MediaConfig) PostService {
	videoTypes := make(map[string]struct{}, len(cfg.AllowedVideoTypes))
	for _, t := range cfg.AllowedVideoTypes {
		videoTypes[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 10
	}
	if cfg.ObjectPrefixFormat == "" {
		cfg.ObjectPrefixFormat = "2006/01/02/"
	}
	return &postServiceImpl{
		posts:      posts,
		userPosts:  userPosts,
		jobs:       jobs,
		storage:    storage,
		images:     images,
		dispatcher: dispatcher,
		pipeline:   pipeline,
		cfg:        cfg,
		videoTypes: videoTypes,
	}
}

// CreatePost 校验全部文件 -> 同步处理图片 -> 上传视频原件 -> 一次写入帖子 -> 派发转码任务。
// 图片失败中止整个请求；视频交接失败不影响请求，之后以 failed 状态呈现。
func (s *postServiceImpl) CreatePost(ctx context.Context, authorID uint64, caption string, files []*MediaUpload) (*dto.PostDTO, error) {
	kinds, err := s.validate(files)
	if err != nil {
		return nil, err
	}

	postID := primitive.NewObjectID()
	items := make([]mongo.MediaItem, len(files))
	var uploaded []string

	// 先处理全部图片，失败时尚未产生任何视频原件
	for i, f := range files {
		if kinds[i] != consts.MediaKindImage {
			continue
		}
		key, err := s.processImage(ctx, f)
		if err != nil {
			s.deleteObjectsAsync(uploaded)
			return nil, err
		}
		uploaded = append(uploaded, key)
		items[i] = mongo.MediaItem{
			Kind:            consts.MediaKindImage,
			ObjectKey:       key,
			Order:           i,
			ProcessingState: consts.ProcessingCompleted,
			ContentType:     consts.ContentTypeJPEG,
			OriginalName:    f.Filename,
		}
	}

	var tasks []*TranscodeTask
	for i, f := range files {
		if kinds[i] != consts.MediaKindVideo {
			continue
		}
		data, err := readAll(f)
		if err != nil {
			s.deleteObjectsAsync(uploaded)
			return nil, fileError(f.Filename, ErrFileUnreadable)
		}

		task := &TranscodeTask{
			JobID:       uuid.NewString(),
			PostID:      postID,
			MediaIndex:  i,
			AuthorID:    authorID,
			Filename:    f.Filename,
			ContentType: normalizeContentType(f.ContentType),
			TraceID:     logger.TraceID(ctx),
			Data:        data,
		}
		task.SourceKey = s.uploadOriginal(ctx, task)
		if task.SourceKey != "" {
			uploaded = append(uploaded, task.SourceKey)
		}

		items[i] = mongo.MediaItem{
			Kind:            consts.MediaKindVideo,
			ObjectKey:       task.SourceKey,
			Order:           i,
			ProcessingState: consts.ProcessingPending,
			ContentType:     task.ContentType,
			OriginalName:    f.Filename,
			JobID:           task.JobID,
			SourceKey:       task.SourceKey,
		}
		tasks = append(tasks, task)
	}

	post := &mongo.PostModel{
		ID:       postID,
		AuthorID: authorID,
		Caption:  caption,
		Media:    items,
	}
	if err = s.posts.CreatePost(ctx, post); err != nil {
		s.deleteObjectsAsync(uploaded)
		return nil, fmt.Errorf("create post: %w", err)
	}

	if err = s.userPosts.AddUserPost(ctx, authorID, postID.Hex()); err != nil {
		log.ErrorContext(ctx, "failed to append post to author collection", "userID", authorID, "postID", postID.Hex(), "err", err)
	}
	s.recordJobs(ctx, tasks)
	s.dispatch(ctx, tasks)

	log.InfoContext(ctx, "post created", "postID", postID.Hex(), "userID", authorID, "media", len(items), "videos", len(tasks))
	return s.toPostDTO(post)
}

// GetPost 获取帖子详情
func (s *postServiceImpl) GetPost(ctx context.Context, postID string) (*dto.PostDTO, error) {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.toPostDTO(post)
}

// ListUserPosts 作者的帖子列表，按发布时间倒序
func (s *postServiceImpl) ListUserPosts(ctx context.Context, userID uint64, cursor string, limit int) (*dto.PostListDTO, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	before, err := util.DecodeCursor(cursor)
	if err != nil {
		return nil, ErrParamInvalid
	}
	rows, err := s.userPosts.ListUserPostIDs(ctx, userID, before, limit)
	if err != nil {
		return nil, err
	}

	out := &dto.PostListDTO{Posts: make([]*dto.PostDTO, 0, len(rows))}
	var last uint64
	for _, row := range rows {
		last = row.ID
		post, err := s.loadPost(ctx, row.PostID)
		if err != nil {
			if errors.Is(err, ErrPostNotFound) {
				continue
			}
			return nil, err
		}
		postDTO, err := s.toPostDTO(post)
		if err != nil {
			return nil, err
		}
		out.Posts = append(out.Posts, postDTO)
	}
	if len(rows) == limit {
		out.NextCursor = util.EncodeCursor(last)
	}
	return out, nil
}

// DeletePost 删除帖子，仍在转码的任务完成后会因回写未命中而丢弃产物
func (s *postServiceImpl) DeletePost(ctx context.Context, userID uint64, postID string) error {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return ForbiddenError
	}

	deleted, err := s.posts.DeletePost(ctx, post.ID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrPostNotFound
	}

	if err = s.userPosts.RemoveUserPost(ctx, userID, postID); err != nil {
		log.ErrorContext(ctx, "failed to remove post from author collection", "userID", userID, "postID", postID, "err", err)
	}

	var keys []string
	for _, m := range post.Media {
		keys = append(keys, m.ObjectKey)
		if m.ThumbnailKey != nil {
			keys = append(keys, *m.ThumbnailKey)
		}
		if m.SourceKey != "" && m.SourceKey != m.ObjectKey {
			keys = append(keys, m.SourceKey)
		}
	}
	s.deleteObjectsAsync(keys)
	return nil
}

// GetProcessingStatus 轮询接口
func (s *postServiceImpl) GetProcessingStatus(ctx context.Context, postID string) (*dto.MediaStatusDTO, error) {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return BuildMediaStatus(post, s.storage.PublicURL), nil
}

// validate 在任何处理开始前校验数量、类型与大小
func (s *postServiceImpl) validate(files []*MediaUpload) ([]string, error) {
	if len(files) == 0 {
		return nil, ErrNoMedia
	}
	if len(files) > s.cfg.MaxFiles {
		return nil, fmt.Errorf("%w: at most %d files per post", ErrTooManyMedia, s.cfg.MaxFiles)
	}

	kinds := make([]string, len(files))
	for i, f := range files {
		if f == nil || f.Open == nil {
			return nil, ErrParamInvalid
		}
		if s.cfg.MaxFileSize > 0 && f.Size > s.cfg.MaxFileSize {
			return nil, fileError(f.Filename, ErrFileTooLarge)
		}

		ct := normalizeContentType(f.ContentType)
		switch {
		case strings.HasPrefix(ct, consts.MimePrefixImage+"/"):
			kinds[i] = consts.MediaKindImage
		case strings.HasPrefix(ct, consts.MimePrefixVideo+"/"):
			if _, ok := s.videoTypes[ct]; !ok {
				return nil, fileError(f.Filename, ErrVideoNotSupported)
			}
			kinds[i] = consts.MediaKindVideo
		default:
			return nil, fileError(f.Filename, ErrFileNotSupported)
		}
	}
	return kinds, nil
}

func (s *postServiceImpl) processImage(ctx context.Context, f *MediaUpload) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fileError(f.Filename, ErrFileUnreadable)
	}
	defer func() {
		_ = rc.Close()
	}()

	out, err := s.images.Process(rc)
	if err != nil {
		log.WarnContext(ctx, "image processing failed", "filename", f.Filename, "err", err)
		return "", fileError(f.Filename, ErrImageProcessing)
	}

	key, err := s.storage.Upload(ctx, s.objectName(consts.ObjectDirImage, ".jpg"), bytes.NewReader(out), int64(len(out)), consts.ContentTypeJPEG)
	if err != nil {
		log.ErrorContext(ctx, "image upload failed", "filename", f.Filename, "err", err)
		return "", fileError(f.Filename, ErrImageProcessing)
	}
	return key, nil
}

// uploadOriginal 上传失败只记录日志，转码仍使用内存中的数据进行
func (s *postServiceImpl) uploadOriginal(ctx context.Context, task *TranscodeTask) string {
	ext := strings.ToLower(filepath.Ext(task.Filename))
	key, err := s.storage.Upload(ctx, s.objectName(consts.ObjectDirOriginal, ext), bytes.NewReader(task.Data), int64(len(task.Data)), task.ContentType)
	if err != nil {
		log.WarnContext(ctx, "original video upload failed", "filename", task.Filename, "jobID", task.JobID, "err", err)
		return ""
	}
	return key
}

func (s *postServiceImpl) recordJobs(ctx context.Context, tasks []*TranscodeTask) {
	if s.jobs == nil || len(tasks) == 0 {
		return
	}
	rows := make([]*model.TranscodeJob, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, t.ledgerRow())
	}
	if err := s.jobs.CreateJobs(ctx, rows); err != nil {
		log.ErrorContext(ctx, "failed to record transcode jobs", "count", len(rows), "err", err)
	}
}

// dispatch 入队失败的任务立即异步走失败路径
func (s *postServiceImpl) dispatch(ctx context.Context, tasks []*TranscodeTask) {
	for _, task := range tasks {
		if err := s.dispatcher.Submit(task); err != nil {
			task.Data = nil
			go s.pipeline.Fail(logger.WithTraceID(context.Background(), logger.TraceID(ctx)), task, err)
		}
	}
}

func (s *postServiceImpl) loadPost(ctx context.Context, postID string) (*mongo.PostModel, error) {
	id, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return nil, ErrPostNotFound
	}
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *postServiceImpl) objectName(dir, ext string) string {
	return dir + time.Now().Format(s.cfg.ObjectPrefixFormat) + uuid.NewString() + ext
}

func (s *postServiceImpl) deleteObjectsAsync(keys []string) {
	if len(keys) == 0 {
		return
	}
	go func() {
		for _, key := range keys {
			if key == "" {
				continue
			}
			if err := s.storage.Delete(context.Background(), key); err != nil {
				log.Warn("failed to delete object", "key", key, "err", err)
			}
		}
	}()
}

// toPostDTO 将 Model 转换为返回给前端的 DTO
func (s *postServiceImpl) toPostDTO(post *mongo.PostModel) (*dto.PostDTO, error) {
	out := &dto.PostDTO{}
	err := copier.CopyWithOption(out, post, copier.Option{
		Converters: []copier.TypeConverter{
			{
				SrcType: primitive.ObjectID{},
				DstType: copier.String,
				Fn: func(src interface{}) (interface{}, error) {
					return src.(primitive.ObjectID).Hex(), nil
				},
			},
			{
				SrcType: time.Time{},
				DstType: copier.String,
				Fn: func(src interface{}) (interface{}, error) {
					return src.(time.Time).Format(time.RFC3339), nil
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	out.Media = toMediaDTOs(post.Media, s.storage.PublicURL)
	out.MediaCount = len(post.Media)
	return out, nil
}

func toMediaDTOs(items []mongo.MediaItem, urlOf func(string) string) []*dto.MediaDTO {
	out := make([]*dto.MediaDTO, 0, len(items))
	for _, m := range items {
		item := &dto.MediaDTO{
			Kind:            m.Kind,
			SourceURL:       urlOf(m.ObjectKey),
			DurationSeconds: m.DurationSeconds,
			Order:           m.Order,
			ProcessingState: m.ProcessingState,
			Error:           m.Error,
		}
		if m.ThumbnailKey != nil && *m.ThumbnailKey != "" {
			thumb := urlOf(*m.ThumbnailKey)
			item.ThumbnailURL = &thumb
		}
		out = append(out, item)
	}
	return out
}

func readAll(f *MediaUpload) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rc.Close()
	}()
	return io.ReadAll(rc)
}

// normalizeContentType 去掉参数并转小写
func normalizeContentType(ct string) string {
	ct = strings.TrimSpace(ct)
	if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
		return strings.ToLower(mediaType)
	}
	return strings.ToLower(ct)
}
