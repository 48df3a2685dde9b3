package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedOffer struct {
	ID    string `msgpack:"id"`
	Price uint64 `msgpack:"price"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	c, err := New(client, WithPrefix("test:"), WithDefaultTTL(time.Minute))
	require.NoError(t, err)
	return c, mr
}

func TestCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	value := cachedOffer{ID: "o1", Price: 1200}
	require.NoError(t, c.Set(ctx, "offer:o1", value, "offer:o1", "buyad-offers:b1"))

	var got cachedOffer
	hit, err := c.Get(ctx, "offer:o1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, value, got)

	// 未寫入的鍵不應命中
	hit, err = c.Get(ctx, "offer:unknown", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheInvalidateTags(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.Set(ctx, "offer:o1", cachedOffer{ID: "o1"}, "buyad-offers:b1"))
	require.NoError(t, c.Set(ctx, "offer:o2", cachedOffer{ID: "o2"}, "buyad-offers:b1"))
	require.NoError(t, c.Set(ctx, "offer:o3", cachedOffer{ID: "o3"}, "buyad-offers:b2"))

	require.NoError(t, c.InvalidateTags(ctx, "buyad-offers:b1"))

	var got cachedOffer
	hit, err := c.Get(ctx, "offer:o1", &got)
	require.NoError(t, err)
	assert.False(t, hit, "掛在失效標籤底下的鍵應被刪除")
	hit, err = c.Get(ctx, "offer:o2", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	// 其他標籤底下的鍵不受影響
	hit, err = c.Get(ctx, "offer:o3", &got)
	require.NoError(t, err)
	assert.True(t, hit)

	// 標籤集合本身也應被清掉
	assert.False(t, mr.Exists("test:tag:buyad-offers:b1"))
}

func TestCacheInvalidateNoTags(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	assert.NoError(t, c.InvalidateTags(ctx))
}

func TestRemember(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	calls := 0
	loader := func() (cachedOffer, error) {
		calls++
		return cachedOffer{ID: "o1", Price: 900}, nil
	}

	got, err := Remember(ctx, c, "offer:o1", []string{"offer:o1"}, loader)
	require.NoError(t, err)
	assert.Equal(t, uint64(900), got.Price)
	assert.Equal(t, 1, calls)

	// 第二次呼叫應命中快取，loader 不再被呼叫
	got, err = Remember(ctx, c, "offer:o1", []string{"offer:o1"}, loader)
	require.NoError(t, err)
	assert.Equal(t, uint64(900), got.Price)
	assert.Equal(t, 1, calls)

	// 失效後 loader 會再次被呼叫
	require.NoError(t, c.InvalidateTags(ctx, "offer:o1"))
	_, err = Remember(ctx, c, "offer:o1", []string{"offer:o1"}, loader)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRememberDegradesOnCacheFailure(t *testing.T) {
	ctx := context.Background()

	// 用 mock 模擬 Redis 故障，miniredis 做不到這件事
	client, mock := redismock.NewClientMock()
	c, err := New(client, WithPrefix("test:"))
	require.NoError(t, err)

	mock.ExpectGet("test:offer:o1").SetErr(errors.New("connection refused"))
	mock.Regexp().ExpectEvalSha(".*", []string{"test:offer:o1"}, ".*", ".*").SetErr(errors.New("connection refused"))

	calls := 0
	got, err := Remember(ctx, c, "offer:o1", nil, func() (cachedOffer, error) {
		calls++
		return cachedOffer{ID: "o1", Price: 700}, nil
	})
	require.NoError(t, err, "快取故障時應降級成直接讀取來源")
	assert.Equal(t, uint64(700), got.Price)
	assert.Equal(t, 1, calls)
}
