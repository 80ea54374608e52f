package repo

import (
	"context"
	"time"

	"go.uber.org/zap"

	"go-gin-gorm-users/internal/core/cache"
	"go-gin-gorm-users/internal/domain"
)

// CachedUserRepo 在 FindByID 上加 redis 读穿缓存，写操作后失效
type CachedUserRepo struct {
	next  domain.UserStore
	cache *cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewCachedUserRepo(next domain.UserStore, c *cache.Cache, ttl time.Duration, l *zap.Logger) *CachedUserRepo {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &CachedUserRepo{next: next, cache: c, ttl: ttl, log: l}
}

var _ domain.UserStore = (*CachedUserRepo)(nil)

func userKey(id string) string { return "user:" + id }

func (r *CachedUserRepo) Create(ctx context.Context, u *domain.User) error {
	return r.next.Create(ctx, u)
}

func (r *CachedUserRepo) FindAll(ctx context.Context) ([]domain.User, error) {
	return r.next.FindAll(ctx)
}

func (r *CachedUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return cache.GetOrLoadJSON(r.cache, ctx, userKey(id), r.ttl, func(ctx context.Context) (*domain.User, error) {
		return r.next.FindByID(ctx, id)
	})
}

func (r *CachedUserRepo) UpdateByID(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	u, err := r.next.UpdateByID(ctx, id, patch)
	r.invalidate(ctx, id)
	return u, err
}

func (r *CachedUserRepo) DeleteByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := r.next.DeleteByID(ctx, id)
	r.invalidate(ctx, id)
	return u, err
}

func (r *CachedUserRepo) invalidate(ctx context.Context, id string) {
	if err := r.cache.Del(ctx, userKey(id)); err != nil {
		r.log.Warn("cache invalidate failed", zap.String("key", userKey(id)), zap.Error(err))
	}
}
