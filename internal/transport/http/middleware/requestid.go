package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	// CtxRequestID gin.Context 中保存请求 ID 的 key
	CtxRequestID = "rid"
)

// 上游传入的 ID 过长时丢弃，重新生成
const maxRequestIDLen = 128

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get(HeaderRequestID)
		if rid == "" || len(rid) > maxRequestIDLen {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(HeaderRequestID, rid)
		c.Set(CtxRequestID, rid)
		c.Next()
	}
}
