package handler

import (
	"Vista/internal/api/config"
	"Vista/internal/api/dto"
	"Vista/internal/pkg/consts"
	"Vista/internal/pkg/response"
	"Vista/internal/pkg/util"
	"Vista/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// multipart 表单中除文件外的字段开销
const formOverhead = 1 << 20

type PostHandler struct {
	postSvc service.PostService
	maxBody int64
}

func NewPostHandler(postSvc service.PostService, cfg config.MediaConfig) *PostHandler {
	return &PostHandler{
		postSvc: postSvc,
		maxBody: int64(cfg.MaxFiles)*cfg.MaxFileSize + formOverhead,
	}
}

func (s *PostHandler) CreatePost(c *gin.Context) {
	userID := c.GetUint64(consts.ContextUserID)

	if s.maxBody > formOverhead {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)
	}
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.CreatePostDTO
	if err = c.ShouldBind(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err = util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	headers := form.File["media"]
	files := make([]*service.MediaUpload, 0, len(headers))
	for _, fh := range headers {
		files = append(files, service.FromFileHeader(fh))
	}

	post, err := s.postSvc.CreatePost(c.Request.Context(), userID, req.Caption, files)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, post)
}

func (s *PostHandler) GetPost(c *gin.Context) {
	post, err := s.postSvc.GetPost(c.Request.Context(), c.Param("post_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

func (s *PostHandler) GetProcessingStatus(c *gin.Context) {
	status, err := s.postSvc.GetProcessingStatus(c.Request.Context(), c.Param("post_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}

func (s *PostHandler) GetPostSelf(c *gin.Context) {
	userID := c.GetUint64(consts.ContextUserID)

	var req dto.ListPostDTO
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	posts, err := s.postSvc.ListUserPosts(c.Request.Context(), userID, req.Cursor, req.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, posts)
}

func (s *PostHandler) DeletePost(c *gin.Context) {
	userID := c.GetUint64(consts.ContextUserID)

	if err := s.postSvc.DeletePost(c.Request.Context(), userID, c.Param("post_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
