package ez

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "go-gin-gorm-users/internal/transport/http/response"
)

type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ {
	if l == nil {
		l = zap.NewNop()
	}
	return EZ{g: g, log: l}
}

// 与 middleware.CtxRequestID 一致
const ctxRequestID = "rid"

// 绑定方式
type Binder string

const (
	BindJSON Binder = "json" // 从 JSON 绑定
	BindNone Binder = "none" // 不绑定，自己从 c.Param 取
)

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method string // "GET" | "POST" | "PUT" | "PATCH" | "DELETE"
	Path   string // 例："/users/:id"
	Binder Binder
	// AllowEmptyBody 空 body 视为零值入参（PATCH 不改任何字段）
	AllowEmptyBody bool
	// Status 成功时的 HTTP 状态码，默认 200
	Status  int
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	okStatus := a.Status
	if okStatus == 0 {
		okStatus = http.StatusOK
	}

	h := func(c *gin.Context) {
		// 1) 绑定 + 声明式校验（binding tag）
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
			if a.AllowEmptyBody && errors.Is(bindErr, io.EOF) {
				bindErr = nil
			}
		default: // BindNone: 不绑定
		}
		if bindErr != nil {
			r := resp.Error(resp.CodeBadRequest, bindErr.Error())
			var mbe *http.MaxBytesError
			if errors.As(bindErr, &mbe) {
				r = resp.Error(resp.CodeBodyTooLarge, "request body too large")
			}
			c.AbortWithStatusJSON(r.Status(), r)
			return
		}

		// 2) 执行
		out, err := a.Handler(c, &in)

		// 3) 统一错误映射
		if err != nil {
			_ = c.Error(err)
			r := resp.FromError(err)
			if r.Code >= resp.CodeServerError {
				e.log.Error("action failed",
					zap.String("method", c.Request.Method),
					zap.String("path", c.FullPath()),
					zap.String("rid", c.GetString(ctxRequestID)),
					zap.Error(err),
				)
			}
			c.AbortWithStatusJSON(r.Status(), r)
			return
		}
		c.JSON(okStatus, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}
