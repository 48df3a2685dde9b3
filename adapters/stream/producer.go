package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/smallnest/chanx"

	"bazar/offers"
)

var ErrProducerClosed = errors.New("producer is closed")

type producerOptions struct {
	logger     *slog.Logger
	bufferSize int
	maxLen     int64
}

type ProducerOption func(*producerOptions)

// WithProducerLogger 設置日誌記錄器
func WithProducerLogger(logger *slog.Logger) ProducerOption {
	return func(o *producerOptions) {
		o.logger = logger
	}
}

// WithProducerBufferSize 設置緩衝大小
func WithProducerBufferSize(size int) ProducerOption {
	return func(o *producerOptions) {
		o.bufferSize = size
	}
}

// WithProducerMaxLen 設置 stream 的近似長度上限，0 代表不修剪
func WithProducerMaxLen(maxLen int64) ProducerOption {
	return func(o *producerOptions) {
		o.maxLen = maxLen
	}
}

// Producer 把報價事件非同步寫入 Redis Stream
//
// Publish 只把事件放進無上限的緩衝，由背景 goroutine 負責 XADD，
// 所以呼叫端的寫入流程不會被 Redis 的延遲拖住
type Producer struct {
	client     *redis.Client
	stream     string
	upstream   *chanx.UnboundedChan[offers.Event]
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	closed     bool
	logger     *slog.Logger
	options    producerOptions
}

// NewProducer 建立報價事件的發布器
func NewProducer(client *redis.Client, stream string, opts ...ProducerOption) (*Producer, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if stream == "" {
		return nil, errors.New("stream cannot be empty")
	}

	// 默認選項
	options := producerOptions{
		logger:     slog.Default(),
		bufferSize: 100,
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}

	return &Producer{
		client:  client,
		stream:  stream,
		closed:  true,
		logger:  options.logger.With(slog.String("caller", "OfferEventProducer"), slog.String("stream", stream)),
		options: options,
	}, nil
}

// Start 啟動背景發布 goroutine
func (p *Producer) Start() {
	if !p.closed {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.upstream = chanx.NewUnboundedChan[offers.Event](ctx, p.options.bufferSize)
	p.cancelFunc = cancel
	p.closed = false
	p.logger.Info("starting offer event producer")

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.logger.Info("producer goroutine stopped")

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-p.upstream.Out:
				values, err := encodeEvent(event)
				if err != nil {
					p.logger.Error("encode event error", slog.Any("error", err))
					continue
				}
				id, err := p.client.XAdd(ctx, &redis.XAddArgs{
					Stream: p.stream,
					MaxLen: p.options.maxLen,
					Approx: p.options.maxLen > 0,
					Values: values,
				}).Result()
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return
					}
					p.logger.Error("publish event error", slog.Any("error", err))
					continue
				}
				p.logger.Debug("event published", slog.String("messageId", id), slog.String("kind", string(event.Kind)))
			}
		}
	}()
}

// Publish 將報價事件排入發布佇列
func (p *Producer) Publish(event offers.Event) error {
	if p.closed {
		return fmt.Errorf("publish %s event: %w", event.Kind, ErrProducerClosed)
	}
	p.upstream.In <- event
	return nil
}

// Close 關閉發布器並等待背景 goroutine 結束
func (p *Producer) Close() {
	if p.closed {
		return
	}
	p.logger.Info("closing offer event producer")
	p.closed = true
	p.cancelFunc()
	p.wg.Wait()
	p.logger.Info("offer event producer closed")
}
