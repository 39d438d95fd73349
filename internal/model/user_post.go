package model

import (
	"time"
)

// UserPost 作者与帖子的归属关系，帖子本体存储在 Mongo
type UserPost struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	UserID    uint64    `gorm:"not null;index:idx_user_created,priority:1" json:"user_id"`
	PostID    string    `gorm:"type:char(24);not null;uniqueIndex" json:"post_id"`
	CreatedAt time.Time `gorm:"index:idx_user_created,priority:2" json:"created_at"`
}

func (UserPost) TableName() string {
	return "user_posts"
}
