package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "go-gin-gorm-users/internal/transport/http/response"
)

// MaxBodyBytes 限制请求体大小；声明长度超限直接 413，未声明长度的在读取时截断
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			abort(c, resp.CodeBodyTooLarge, "request body too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
