package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-gin-gorm-users/internal/core/server"
	mdw "go-gin-gorm-users/internal/transport/http/middleware"
	resp "go-gin-gorm-users/internal/transport/http/response"
)

type Options struct {
	RateRPS       float64 // 全局限速，<=0 不限
	RateBurst     int
	PerIPRPS      float64 // 每 IP 限速，<=0 不限
	PerIPBurst    int
	MaxConcurrent int64
	MaxBodyBytes  int64
	Timeout       time.Duration
	AllowOrigins  []string
	// Ready 健康检查时探测下游（DB/Redis），nil 表示总是就绪
	Ready func(*gin.Context) error
}

func DefaultOptions() Options {
	return Options{
		RateRPS:       200,
		RateBurst:     400,
		MaxConcurrent: 300,
		MaxBodyBytes:  1 << 20,
		Timeout:       10 * time.Second,
	}
}

func NewAPIEngine(l *zap.Logger, opt Options, reg *Registry) *gin.Engine {
	r := server.NewRouter(l, opt.AllowOrigins)

	// 中间件
	mws := []gin.HandlerFunc{
		mdw.RequestID(),
		mdw.Metrics(),
		mdw.AccessLog(l, "/health", "/metrics"),
		mdw.RateLimit(rate.Limit(opt.RateRPS), opt.RateBurst),
	}
	if opt.PerIPRPS > 0 {
		mws = append(mws, mdw.RateLimitPerIP(rate.Limit(opt.PerIPRPS), opt.PerIPBurst))
	}
	mws = append(mws,
		mdw.ConcurrencyLimit(opt.MaxConcurrent),
		mdw.Timeout(opt.Timeout),
	)
	if opt.MaxBodyBytes > 0 {
		mws = append(mws, mdw.MaxBodyBytes(opt.MaxBodyBytes))
	}
	r.Use(mws...)

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		if opt.Ready != nil {
			if err := opt.Ready(c); err != nil {
				l.Warn("health check failed", zap.Error(err))
				x := resp.Error(resp.CodeServerBusy, "not ready")
				c.JSON(x.Status(), x)
				return
			}
		}
		c.JSON(http.StatusOK, resp.OK(gin.H{"ok": 1}))
	})
	r.GET("/metrics", gin.WrapH(mdw.MetricsHandler()))

	r.NoRoute(func(c *gin.Context) {
		x := resp.Error(resp.CodeNotFound, "route not found")
		c.JSON(x.Status(), x)
	})

	// 前缀
	api := r.Group("/api/v1")
	if reg != nil {
		reg.MountAPI(api)
	}
	return r
}
