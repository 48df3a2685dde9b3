package redlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// IMutex 是報價過期掃描用的分散式鎖介面
// Lock 回傳的 context 會在解鎖或續期失敗時被取消
type IMutex interface {
	Lock(ctx context.Context) (context.Context, error)
	Unlock() (bool, error)
	Valid() bool
}

type mutexOptions struct {
	expiry        time.Duration
	renewInterval time.Duration
	retryDelay    time.Duration
	skipLockError bool
}

type MutexOption func(*mutexOptions)

// WithMutexExpiry 設置鎖在 Redis 上的存活時間
func WithMutexExpiry(d time.Duration) MutexOption {
	return func(o *mutexOptions) {
		o.expiry = d
	}
}

// WithMutexRenewInterval 設置背景續期的間隔
func WithMutexRenewInterval(d time.Duration) MutexOption {
	return func(o *mutexOptions) {
		o.renewInterval = d
	}
}

// WithMutexRetryDelay 設置鎖被佔用時的重試間隔
func WithMutexRetryDelay(d time.Duration) MutexOption {
	return func(o *mutexOptions) {
		o.retryDelay = d
	}
}

// WithMutexSkipLockError 設置是否連 Redis 溝通錯誤都重試
func WithMutexSkipLockError(skip bool) MutexOption {
	return func(o *mutexOptions) {
		o.skipLockError = skip
	}
}

// AutoRenewMutex 以 redsync 實作的自動續期分散式鎖，
// 讓多實例部署下同一時間只有一個實例執行過期掃描。
// 取得鎖後由背景 goroutine 定期延長效期，續期失敗時
// 取消 Lock 回傳的 context 通知持有者停止工作。
type AutoRenewMutex struct {
	inner   *redsync.Mutex
	options mutexOptions

	mu       sync.Mutex
	renewing bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewAutoRenewMutex 建立掃描鎖，未指定續期間隔時取存活時間的三分之一
func NewAutoRenewMutex(client *redis.Client, key string, opts ...MutexOption) IMutex {
	// 默認選項
	options := mutexOptions{
		expiry:        8 * time.Second,
		retryDelay:    500 * time.Millisecond,
		renewInterval: 0,
		skipLockError: false,
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}
	if options.renewInterval <= 0 {
		options.renewInterval = options.expiry / 3
	}

	rs := redsync.New(goredis.NewPool(client))
	inner := rs.NewMutex(
		key,
		redsync.WithExpiry(options.expiry),
		redsync.WithTries(1),
		redsync.WithRetryDelay(options.retryDelay),
	)

	return &AutoRenewMutex{
		inner:   inner,
		options: options,
	}
}

// Lock 不斷嘗試取鎖直到成功或 context 結束，成功後啟動自動續期
func (m *AutoRenewMutex) Lock(ctx context.Context) (context.Context, error) {
	for {
		err := m.inner.LockContext(ctx)
		if err == nil {
			lockCtx, cancel := context.WithCancel(ctx)
			m.cancel = cancel
			m.startRenewLoop(lockCtx)
			return lockCtx, nil
		}

		// 鎖被別的實例持有時重試；Redis 溝通錯誤視為致命
		var redisErr *redsync.RedisError
		if !m.options.skipLockError && errors.As(err, &redisErr) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.options.retryDelay):
		}
	}
}

// Unlock 停止自動續期並釋放鎖
func (m *AutoRenewMutex) Unlock() (bool, error) {
	m.stopRenewLoop()
	m.wg.Wait()
	return m.inner.Unlock()
}

// Valid 回報鎖是否仍由本實例持有且未過期
func (m *AutoRenewMutex) Valid() bool {
	m.mu.Lock()
	renewing := m.renewing
	m.mu.Unlock()
	return renewing && time.Now().Before(m.inner.Until())
}

func (m *AutoRenewMutex) startRenewLoop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.renewing {
		return
	}
	m.renewing = true

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.options.renewInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// 續期失敗代表鎖已經丟了，取消 context 讓持有者停手
				if ok, err := m.inner.Extend(); err != nil || !ok {
					m.stopRenewLoop()
					return
				}
			}
		}
	}()
}

func (m *AutoRenewMutex) stopRenewLoop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.renewing {
		return
	}
	m.renewing = false
	if m.cancel != nil {
		m.cancel()
	}
}
