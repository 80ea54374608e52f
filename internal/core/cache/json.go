package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// GetOrLoadJSON 读穿缓存；load 返回的错误原样透传，不做负缓存
func GetOrLoadJSON[T any](
	c *Cache,
	ctx context.Context,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (*T, error),
) (*T, error) {
	b, err := c.GetOrLoad(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, e := load(ctx)
		if e != nil {
			return nil, e
		}
		return json.Marshal(v)
	})
	if err != nil {
		return nil, err
	}
	var out T
	if e := json.Unmarshal(b, &out); e != nil {
		// 脏数据：删掉后回源
		_ = c.Del(ctx, key)
		v, le := load(ctx)
		if le != nil {
			return nil, le
		}
		if v == nil {
			return nil, fmt.Errorf("cache %q: decode: %w", key, e)
		}
		return v, nil
	}
	return &out, nil
}
