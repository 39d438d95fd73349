package repository

import (
	"Vista/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserPostRepo interface {
	AddUserPost(ctx context.Context, userID uint64, postID string) error
	RemoveUserPost(ctx context.Context, userID uint64, postID string) error
	ListUserPostIDs(ctx context.Context, userID uint64, beforeID uint64, limit int) ([]*model.UserPost, error)
}

type UserPostRepoImpl struct {
	db *gorm.DB
}

func NewUserPostRepo(db *gorm.DB) UserPostRepo {
	return &UserPostRepoImpl{
		db: db,
	}
}

// AddUserPost 重复写入同一帖子时忽略
func (s *UserPostRepoImpl) AddUserPost(ctx context.Context, userID uint64, postID string) error {
	row := &model.UserPost{UserID: userID, PostID: postID}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}

func (s *UserPostRepoImpl) RemoveUserPost(ctx context.Context, userID uint64, postID string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&model.UserPost{}).Error
}

// ListUserPostIDs 按时间倒序分页，beforeID 为 0 时从最新开始
func (s *UserPostRepoImpl) ListUserPostIDs(ctx context.Context, userID uint64, beforeID uint64, limit int) ([]*model.UserPost, error) {
	var rows []*model.UserPost
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	err := q.Order("id DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
