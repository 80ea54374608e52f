package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "go-gin-gorm-users/internal/transport/http/response"
)

// ConcurrencyLimit 限制同时在处理的请求数（保护 DB 下游）；max<=0 不限制
func ConcurrencyLimit(max int64) gin.HandlerFunc {
	if max <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	sem := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		if !sem.TryAcquire(1) {
			abort(c, resp.CodeServerBusy, "server busy")
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}

func abort(c *gin.Context, code int, msg string) {
	r := resp.Error(code, msg)
	c.AbortWithStatusJSON(r.Status(), r)
}
