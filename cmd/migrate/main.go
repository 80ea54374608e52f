package main

import (
	"context"
	"flag"
	"os"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"go-gin-gorm-users/internal/app"
	"go-gin-gorm-users/internal/core/config"
	"go-gin-gorm-users/internal/service"
)

// 用法：
//
//	migrate               只做 AutoMigrate
//	migrate -reset        清空 users 表（测试库每轮前执行）
//	migrate -seed-admin   创建 admin.email 对应的管理员，已存在则跳过
func main() {
	var (
		cfgPath   = flag.String("config", os.Getenv("CONFIG_PATH"), "config file path")
		reset     = flag.Bool("reset", false, "truncate the users table")
		seedAdmin = flag.Bool("seed-admin", false, "create the configured admin user")
		timeout   = flag.Duration("timeout", 30*time.Second, "overall timeout")
	)
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load(*cfgPath)
	// 迁移工具总是建表
	cfg.DB.AutoMigrate = true
	log, cleanup := app.NewLogger(cfg)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	stores, err := app.OpenStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("open stores", zap.Error(err))
	}
	defer func() { _ = stores.Close() }()

	if *reset {
		if err := stores.Truncate(ctx); err != nil {
			log.Fatal("reset failed", zap.Error(err))
		}
		log.Info("users table reset")
	}

	if *seedAdmin {
		svc := service.NewUserService(stores.Users, app.NewHasher(cfg), log.Named("user"))
		created, err := app.SeedAdmin(ctx, svc, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			log.Fatal("seed admin failed", zap.Error(err))
		}
		if created {
			log.Info("admin created", zap.String("email", cfg.Admin.Email))
		} else {
			log.Info("admin already exists", zap.String("email", cfg.Admin.Email))
		}
	}
	log.Info("migrate done", zap.String("driver", cfg.DB.Driver))
}
