package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

type Cache struct {
	RDB    *redis.Client
	Prefix string
	// LoadTimeout 回源的超时，与发起请求的 ctx 取消无关
	LoadTimeout time.Duration
	// GenTTL 代际 key 的存活时间，必须远大于 LoadTimeout
	GenTTL time.Duration
	sf     singleflight.Group
}

const (
	defaultLoadTimeout = 5 * time.Second
	defaultGenTTL      = time.Hour
)

// setIfGen 代际未变才写入：KEYS[1] 数据 key，KEYS[2] 代际 key，ARGV 为 读到的代际/值/毫秒 TTL
var setIfGen = redis.NewScript(`
local cur = redis.call("GET", KEYS[2]) or "0"
if cur ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

func New(addr, pass string, db int) *Cache {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}))
}

func NewWithClient(rdb *redis.Client) *Cache {
	return &Cache{RDB: rdb, LoadTimeout: defaultLoadTimeout, GenTTL: defaultGenTTL}
}

func (c *Cache) Key(key string) string { return c.Prefix + key }

// genKey 单独的命名空间，DelPattern("user:*") 不会误删
func (c *Cache) genKey(full string) string { return c.Prefix + "gen:" + strings.TrimPrefix(full, c.Prefix) }

func (c *Cache) Ping(ctx context.Context) error { return c.RDB.Ping(ctx).Err() }

func (c *Cache) Close() error { return c.RDB.Close() }

// GetOrLoad 读穿缓存。回源前记下 key 的代际，写回时代际变了（期间有 Del）就放弃写回，
// 保证失效总是赢过在途的旧数据
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	key = c.Key(key)
	// 先读缓存；redis 不可用时直接回源
	if b, err := c.RDB.Get(ctx, key).Bytes(); err == nil {
		return b, nil
	}

	// single flight 合并回源；回源脱离首个调用方的取消，各调用方按自己的 ctx 等待
	ch := c.sf.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout())
		defer cancel()

		// 读不到代际（redis 不可用）时只回源，不写回
		gen, genErr := c.RDB.Get(lctx, c.genKey(key)).Result()
		if errors.Is(genErr, redis.Nil) {
			gen, genErr = "0", nil
		}

		b, e := load(lctx)
		if e != nil {
			return nil, e
		}
		if genErr == nil {
			_ = setIfGen.Run(lctx, c.RDB, []string{key, c.genKey(key)}, gen, b, ttl.Milliseconds()).Err()
		}
		return b, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]byte), nil
	}
}

func (c *Cache) loadTimeout() time.Duration {
	if c.LoadTimeout > 0 {
		return c.LoadTimeout
	}
	return defaultLoadTimeout
}

func (c *Cache) genTTL() time.Duration {
	if c.GenTTL > 0 {
		return c.GenTTL
	}
	return defaultGenTTL
}

// Del 写操作后失效缓存：先推进代际再删数据，在途回源的结果不会再写回
func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, c.Key(k))
	}
	_, err := c.RDB.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, k := range full {
			p.Incr(ctx, c.genKey(k))
			p.PExpire(ctx, c.genKey(k), c.genTTL())
		}
		p.Del(ctx, full...)
		return nil
	})
	// 之后的读取不再复用在途的回源结果
	for _, k := range full {
		c.sf.Forget(k)
	}
	return err
}

// DelPattern 按模式（不含前缀）SCAN 删除，返回删除的 key 数
func (c *Cache) DelPattern(ctx context.Context, pattern string) (int, error) {
	var (
		cursor uint64
		n      int
	)
	for {
		keys, next, err := c.RDB.Scan(ctx, cursor, c.Key(pattern), 200).Result()
		if err != nil {
			return n, err
		}
		if len(keys) > 0 {
			if err := c.RDB.Del(ctx, keys...).Err(); err != nil {
				return n, err
			}
			n += len(keys)
		}
		if next == 0 {
			return n, nil
		}
		cursor = next
	}
}
