package api

import (
	"Vista/internal/api/middleware"
	"Vista/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

// 超过该大小的 multipart 文件落盘到临时目录
const multipartMemory = 32 << 20

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})
	r.MaxMultipartMemory = multipartMemory

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		apiGroup.GET("/ws", group.WSHandler.Connect)

		postGroup := apiGroup.Group("/posts")
		{
			authOptGroup := postGroup.Group("")
			authOptGroup.Use(middleware.AuthOptionalMiddleware())
			{
				authOptGroup.GET("/:post_id", group.PostHandler.GetPost)
			}

			authGroup := postGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.POST("", group.PostHandler.CreatePost)
				authGroup.GET("/self", group.PostHandler.GetPostSelf)
				authGroup.GET("/:post_id/processing-status", group.PostHandler.GetProcessingStatus)
				authGroup.DELETE("/:post_id", group.PostHandler.DeletePost)
			}
		}
	}

	return r
}
