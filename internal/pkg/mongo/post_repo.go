package mongo

import (
	"Vista/internal/pkg/consts"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const postCollection = "posts"

type PostRepo interface {
	EnsureIndexes(ctx context.Context) error
	CreatePost(ctx context.Context, post *PostModel) error
	GetPost(ctx context.Context, id primitive.ObjectID) (*PostModel, error)
	DeletePost(ctx context.Context, id primitive.ObjectID, authorID uint64) (bool, error)
	CompleteMedia(ctx context.Context, ref MediaRef, result MediaCompletion) (bool, error)
	FailMedia(ctx context.Context, ref MediaRef, reason string) (bool, error)
}

type postRepoImpl struct {
	col *mongo.Collection
}

func NewPostRepo(db *mongo.Database) PostRepo {
	return &postRepoImpl{
		col: db.Collection(postCollection),
	}
}

// EnsureIndexes 作者维度查询与按任务ID回查
func (s *postRepoImpl) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "media.job_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	return err
}

// CreatePost 一次写入帖子与全部媒体（包括待转码的视频）
func (s *postRepoImpl) CreatePost(ctx context.Context, post *PostModel) error {
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	now := time.Now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = post.CreatedAt
	post.MediaCount = len(post.Media)

	_, err := s.col.InsertOne(ctx, post)
	return err
}

// GetPost 不存在时返回 (nil, nil)
func (s *postRepoImpl) GetPost(ctx context.Context, id primitive.ObjectID) (*PostModel, error) {
	var post PostModel
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// DeletePost 只删除作者本人的帖子
func (s *postRepoImpl) DeletePost(ctx context.Context, id primitive.ObjectID, authorID uint64) (bool, error) {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id, "author_id": authorID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// CompleteMedia 条件更新单个媒体为 completed，未命中（帖子已删或已是终态）返回 false
func (s *postRepoImpl) CompleteMedia(ctx context.Context, ref MediaRef, result MediaCompletion) (bool, error) {
	now := time.Now()
	p := mediaPath(ref.Index)
	update := bson.M{"$set": bson.M{
		p + "object_key":       result.ObjectKey,
		p + "thumbnail_key":    result.ThumbnailKey,
		p + "duration_seconds": result.DurationSeconds,
		p + "content_type":     result.ContentType,
		p + "processing_state": consts.ProcessingCompleted,
		p + "processed_at":     now,
		"updated_at":           now,
	}}
	return s.transition(ctx, ref, update)
}

// FailMedia 条件更新单个媒体为 failed，原始上传保持不变
func (s *postRepoImpl) FailMedia(ctx context.Context, ref MediaRef, reason string) (bool, error) {
	now := time.Now()
	p := mediaPath(ref.Index)
	update := bson.M{"$set": bson.M{
		p + "processing_state": consts.ProcessingFailed,
		p + "error":            reason,
		p + "processed_at":     now,
		"updated_at":           now,
	}}
	return s.transition(ctx, ref, update)
}

func (s *postRepoImpl) transition(ctx context.Context, ref MediaRef, update bson.M) (bool, error) {
	if ref.Index < 0 || ref.JobID == "" {
		return false, nil
	}
	p := mediaPath(ref.Index)
	filter := bson.M{
		"_id":                  ref.PostID,
		p + "job_id":           ref.JobID,
		p + "processing_state": consts.ProcessingPending,
	}
	res, err := s.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func mediaPath(index int) string {
	return fmt.Sprintf("media.%d.", index)
}
