package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"go-gin-gorm-users/internal/app"
	"go-gin-gorm-users/internal/core/config"
	"go-gin-gorm-users/internal/core/logger"
	"go-gin-gorm-users/internal/core/server"
	"go-gin-gorm-users/internal/service"
	"go-gin-gorm-users/internal/transport/http/handler"
	"go-gin-gorm-users/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := app.NewLogger(cfg)
	defer cleanup()
	undo := logger.RedirectStdLog(log, zapcore.InfoLevel)
	defer undo()

	if cfg.App.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 存储（失败会直接 Fatal）
	ctx := context.Background()
	stores, err := app.OpenStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("open stores", zap.Error(err))
	}
	defer func() { _ = stores.Close() }()

	// 依赖
	userSvc := service.NewUserService(stores.Users, app.NewHasher(cfg), log.Named("user"))
	userH := handler.NewUserHandler(userSvc, log)

	// 路由
	h := cfg.App.HTTP
	r := router.NewAPIEngine(log, router.Options{
		RateRPS:       h.RateRPS,
		RateBurst:     h.RateBurst,
		PerIPRPS:      h.PerIPRPS,
		PerIPBurst:    h.PerIPBurst,
		MaxConcurrent: h.MaxConcurrent,
		MaxBodyBytes:  h.MaxBodyBytes,
		Timeout:       time.Duration(h.RequestTimeoutMs) * time.Millisecond,
		AllowOrigins:  cfg.CORS.AllowOrigins,
		Ready:         func(c *gin.Context) error { return stores.Ping(c.Request.Context()) },
	}, router.NewRegistry(userH))

	// HTTP Server
	addr := server.Addr(h.Host, h.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(h.ReadTimeoutSec)*time.Second,
		time.Duration(h.WriteTimeoutSec)*time.Second,
		time.Duration(h.IdleTimeoutSec)*time.Second,
	)

	// 启动日志
	host4human := h.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(h.Port)
	log.Info("user api starting",
		zap.String("addr", addr),
		zap.String("env", cfg.App.Env),
		zap.String("store", cfg.DB.Driver),
		zap.Bool("cache", cfg.Redis.Enabled),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)

	// 异步启动
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("user api start FAILED", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	log.Info("user api stopped gracefully")
}
