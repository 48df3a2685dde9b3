package redlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func setupTest(t *testing.T) *redis.Client {
	t.Helper()
	// 先註冊 goroutine 外洩檢查，讓它在 miniredis 關閉之後才執行
	t.Cleanup(func() { goleak.VerifyNone(t) })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNewAutoRenewMutex(t *testing.T) {
	tests := []struct {
		name string
		key  string
		opts []MutexOption
	}{
		{
			name: "default options",
			key:  "sweep-lock",
		},
		{
			name: "custom options",
			key:  "sweep-lock",
			opts: []MutexOption{
				WithMutexExpiry(5 * time.Second),
				WithMutexRenewInterval(time.Second),
				WithMutexRetryDelay(100 * time.Millisecond),
				WithMutexSkipLockError(true),
			},
		},
		{
			name: "zero expiry falls back to default renew interval",
			key:  "sweep-lock",
			opts: []MutexOption{
				WithMutexExpiry(0),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := setupTest(t)

			mutex := NewAutoRenewMutex(client, tt.key, tt.opts...)
			require.NotNil(t, mutex)
		})
	}
}

func TestAutoRenewMutexLockUnlock(t *testing.T) {
	client := setupTest(t)

	mutex := NewAutoRenewMutex(client, "sweep-lock")
	lockCtx, err := mutex.Lock(context.Background())
	require.NoError(t, err)
	require.NotNil(t, lockCtx)
	assert.True(t, mutex.Valid())

	ok, err := mutex.Unlock()
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, mutex.Valid())

	// 解鎖後鎖的 context 應被取消
	select {
	case <-lockCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("lock context was not cancelled after unlock")
	}
}

func TestAutoRenewMutexMutualExclusion(t *testing.T) {
	client := setupTest(t)

	first := NewAutoRenewMutex(client, "sweep-lock")
	_, err := first.Lock(context.Background())
	require.NoError(t, err)

	// 鎖被持有時第二個取鎖請求應持續重試直到 context 逾時
	second := NewAutoRenewMutex(client, "sweep-lock",
		WithMutexRetryDelay(20*time.Millisecond),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err = second.Lock(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	ok, err := first.Unlock()
	require.NoError(t, err)
	require.True(t, ok)

	// 釋放後即可取得
	third := NewAutoRenewMutex(client, "sweep-lock")
	_, err = third.Lock(context.Background())
	require.NoError(t, err)
	_, err = third.Unlock()
	assert.NoError(t, err)
}
