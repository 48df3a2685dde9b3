package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

type cacheOptions struct {
	prefix     string
	defaultTTL time.Duration
	logger     *slog.Logger
}

type Option func(*cacheOptions)

// WithPrefix 設定快取鍵的前綴
func WithPrefix(prefix string) Option {
	return func(o *cacheOptions) {
		o.prefix = prefix
	}
}

// WithDefaultTTL 設定快取值的預設存活時間
func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *cacheOptions) {
		o.defaultTTL = ttl
	}
}

// WithLogger 設置日誌記錄器
func WithLogger(logger *slog.Logger) Option {
	return func(o *cacheOptions) {
		o.logger = logger
	}
}

// Cache 提供以 msgpack 序列化、以標籤為失效單位的讀取快取
//
// 每個快取鍵可以掛在多個標籤底下，標籤以 Redis set 維護成員清單。
// 失效時只刪除標籤集合中列出的鍵，不做萬用字元掃描
type Cache struct {
	client  redis.UniversalClient
	options cacheOptions
}

// New 建立快取閘道
func New(client redis.UniversalClient, opts ...Option) (*Cache, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	// 默認選項
	options := cacheOptions{
		prefix:     "cache:",
		defaultTTL: 5 * time.Minute,
		logger:     slog.Default(),
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}

	return &Cache{
		client:  client,
		options: options,
	}, nil
}

// setScript 原子性地寫入快取值並把鍵登記到所有標籤集合
//  KEYS[1]   - 快取鍵
//  KEYS[2..] - 標籤集合鍵
//  ARGV[1]   - msgpack 序列化後的值
//  ARGV[2]   - 存活秒數
//
// 標籤集合的存活時間跟著成員一起延長，避免集合比成員早消失
var setScript = redis.NewScript(`
redis.call('SET', KEYS[1], ARGV[1], 'EX', ARGV[2])
for i = 2, #KEYS do
    redis.call('SADD', KEYS[i], KEYS[1])
    redis.call('EXPIRE', KEYS[i], ARGV[2])
end
return 1
`)

// invalidateScript 刪除標籤集合中列出的所有快取鍵與集合本身
//  KEYS[1..] - 標籤集合鍵
//
// 返回值: 刪除的快取鍵數量
var invalidateScript = redis.NewScript(`
local removed = 0
for i = 1, #KEYS do
    local members = redis.call('SMEMBERS', KEYS[i])
    for _, member in ipairs(members) do
        removed = removed + redis.call('DEL', member)
    end
    redis.call('DEL', KEYS[i])
end
return removed
`)

func (c *Cache) key(key string) string {
	return c.options.prefix + key
}

func (c *Cache) tagKey(tag string) string {
	return c.options.prefix + "tag:" + tag
}

// Get 讀取快取值並反序列化到 dest，回傳是否命中
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	const op = "Cache.Get"
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("[%s] Fail to get cached value, err=%w", op, err)
	}
	if err := msgpack.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("[%s] Fail to unmarshal cached value, err=%w", op, err)
	}
	return true, nil
}

// Set 寫入快取值並把鍵登記到所有標籤底下
func (c *Cache) Set(ctx context.Context, key string, value any, tags ...string) error {
	const op = "Cache.Set"
	raw, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("[%s] Fail to marshal value, err=%w", op, err)
	}
	keys := make([]string, 0, len(tags)+1)
	keys = append(keys, c.key(key))
	for _, tag := range tags {
		keys = append(keys, c.tagKey(tag))
	}
	seconds := int(c.options.defaultTTL / time.Second)
	if err := setScript.Run(ctx, c.client, keys, raw, seconds).Err(); err != nil {
		return fmt.Errorf("[%s] Fail to set cached value, err=%w", op, err)
	}
	return nil
}

// InvalidateTags 讓所有掛在指定標籤底下的快取鍵失效
func (c *Cache) InvalidateTags(ctx context.Context, tags ...string) error {
	const op = "Cache.InvalidateTags"
	if len(tags) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tags))
	for _, tag := range tags {
		keys = append(keys, c.tagKey(tag))
	}
	if err := invalidateScript.Run(ctx, c.client, keys).Err(); err != nil {
		return fmt.Errorf("[%s] Fail to invalidate tags, err=%w", op, err)
	}
	return nil
}

// Remember 是讀取穿透的輔助函式
// 快取未命中時呼叫 loader 取值、寫入快取並回傳
func Remember[T any](ctx context.Context, c *Cache, key string, tags []string, loader func() (T, error)) (T, error) {
	var value T
	hit, err := c.Get(ctx, key, &value)
	if err != nil {
		// 快取故障時降級成直接讀取來源
		c.options.logger.Warn("Fail to read cache, falling back to loader", slog.String("key", key), slog.Any("error", err))
	}
	if hit {
		return value, nil
	}
	value, err = loader()
	if err != nil {
		return value, err
	}
	if err := c.Set(ctx, key, value, tags...); err != nil {
		c.options.logger.Warn("Fail to populate cache", slog.String("key", key), slog.Any("error", err))
	}
	return value, nil
}
