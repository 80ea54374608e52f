package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"go-gin-gorm-users/internal/apperr"
	"go-gin-gorm-users/internal/core/cache"
	"go-gin-gorm-users/internal/core/config"
	"go-gin-gorm-users/internal/core/database"
	"go-gin-gorm-users/internal/core/logger"
	"go-gin-gorm-users/internal/domain"
	"go-gin-gorm-users/internal/feature/user"
	"go-gin-gorm-users/internal/repo"
	"go-gin-gorm-users/internal/repo/memory"
	"go-gin-gorm-users/internal/service"
	"go-gin-gorm-users/pkg/utils"
)

// truncater 支持清表的存储
type truncater interface {
	Truncate(ctx context.Context) error
}

// Stores 进程持有的存储资源
type Stores struct {
	Users domain.UserStore
	DB    *gorm.DB     // memory 驱动时为 nil
	Cache *cache.Cache // 未启用 redis 时为 nil

	base truncater
	log  *zap.Logger
}

func NewLogger(cfg *config.Config) (*zap.Logger, func()) {
	opt := logger.Options{
		Level:       cfg.Log.Level,
		JSON:        cfg.Log.JSON,
		AddCaller:   true,
		Development: !cfg.Log.JSON,
		Service:     cfg.App.Name,
	}
	if r := cfg.Log.Rotate; r.Enable {
		opt.Rotate = logger.FileRotate{
			Enable:     true,
			Filename:   r.Filename,
			MaxSizeMB:  r.MaxSizeMB,
			MaxBackups: r.MaxBackups,
			MaxAgeDays: r.MaxAgeDays,
			Compress:   r.Compress,
		}
	}
	return logger.Build(opt)
}

// OpenStores 按 db.driver 打开存储；redis 启用时在外层包一层读缓存
func OpenStores(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Stores, error) {
	s := &Stores{log: l}

	if cfg.DB.Driver == "memory" {
		mem := memory.NewUserRepo()
		s.Users, s.base = mem, mem
		l.Warn("using in-memory store, data is lost on restart")
	} else {
		w, err := logger.ToStdLogger(l.Named("gorm"), zapcore.WarnLevel)
		if err != nil {
			return nil, err
		}
		db, err := database.NewGorm(database.Opts{
			Driver:             cfg.DB.Driver,
			DSN:                cfg.DB.DSN,
			Username:           cfg.DB.Username,
			Password:           cfg.DB.Password,
			MaxOpenConns:       cfg.DB.MaxOpenConns,
			MaxIdleConns:       cfg.DB.MaxIdleConns,
			ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
			LogLevel:           cfg.DB.LogLevel,
			SlowThresholdMs:    cfg.DB.SlowThresholdMs,
			Writer:             w,
		})
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		if cfg.DB.AutoMigrate {
			if err := user.Migrate(ctx, db); err != nil {
				_ = database.Close(db)
				return nil, fmt.Errorf("automigrate: %w", err)
			}
			l.Info("automigrate done")
		}
		gr := repo.NewUserRepo(db)
		s.DB, s.Users, s.base = db, gr, gr
		l.Info("database connected", zap.String("driver", cfg.DB.Driver))
	}

	if cfg.Redis.Enabled {
		c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		c.Prefix = cfg.Redis.Prefix
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := c.Ping(pctx); err != nil {
			// 读缓存失败会回源，不阻止启动
			l.Warn("redis unreachable, reads fall through to store", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		s.Cache = c
		s.Users = repo.NewCachedUserRepo(s.Users, c, time.Duration(cfg.Redis.TTLSec)*time.Second, l)
	}
	return s, nil
}

// Ping 健康检查：DB 必须可用，redis 不可用只影响缓存
func (s *Stores) Ping(ctx context.Context) error {
	if s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Truncate 清空 users 表并清掉缓存的用户条目
func (s *Stores) Truncate(ctx context.Context) error {
	if err := s.base.Truncate(ctx); err != nil {
		return fmt.Errorf("truncate users: %w", err)
	}
	if s.Cache != nil {
		n, err := s.Cache.DelPattern(ctx, "user:*")
		if err != nil {
			s.log.Warn("purge user cache failed", zap.Error(err))
		} else {
			s.log.Info("user cache purged", zap.Int("keys", n))
		}
	}
	return nil
}

func (s *Stores) Close() error {
	var errs []error
	if s.Cache != nil {
		errs = append(errs, s.Cache.Close())
	}
	if s.DB != nil {
		errs = append(errs, database.Close(s.DB))
	}
	return errors.Join(errs...)
}

func NewHasher(cfg *config.Config) *utils.BcryptHasher {
	return utils.NewBcryptHasher(cfg.Hash.Cost, cfg.Hash.Workers)
}

// SeedAdmin 创建管理员；email 已存在时返回 false, nil
func SeedAdmin(ctx context.Context, svc *service.UserService, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, apperr.InvalidArgument("admin email and password are required")
	}
	_, err := svc.Create(ctx, service.CreateUserInput{
		Email:    email,
		Password: password,
		Role:     domain.RoleAdmin,
	})
	switch {
	case err == nil:
		return true, nil
	case apperr.Is(err, apperr.KindConflict):
		return false, nil
	default:
		return false, err
	}
}
