package dto

// CreatePostDTO multipart 表单中的文本字段，文件在 media 字段中
type CreatePostDTO struct {
	Caption string `form:"caption" validate:"max=2200"`
}

// ListPostDTO 作者帖子分页
type ListPostDTO struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=50"`
}
