package stream

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"bazar/offers"
)

type consumerOptions struct {
	logger       *slog.Logger
	bufferSize   int
	blockTimeout time.Duration
	lastID       string
}

type ConsumerOption func(*consumerOptions)

// WithConsumerLogger 設置日誌記錄器
func WithConsumerLogger(logger *slog.Logger) ConsumerOption {
	return func(o *consumerOptions) {
		o.logger = logger
	}
}

// WithConsumerBufferSize 設置下游channel的緩衝大小
func WithConsumerBufferSize(size int) ConsumerOption {
	return func(o *consumerOptions) {
		o.bufferSize = size
	}
}

// WithConsumerBlockTimeout 設置阻塞讀取超時時間
func WithConsumerBlockTimeout(d time.Duration) ConsumerOption {
	return func(o *consumerOptions) {
		o.blockTimeout = d
	}
}

// WithConsumerStartID 設置開始讀取的位置，預設只讀取啟動後的新事件
func WithConsumerStartID(id string) ConsumerOption {
	return func(o *consumerOptions) {
		o.lastID = id
	}
}

// Consumer 從 Redis Stream 讀取報價事件並轉發到下游 channel
// 用於 API 端把事件廣播給 SSE 連線
type Consumer struct {
	client     *redis.Client
	stream     string
	lastID     string
	downStream chan offers.Event
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	closed     bool
	logger     *slog.Logger
	options    consumerOptions
}

// NewConsumer 建立報價事件的消費者
func NewConsumer(client *redis.Client, stream string, opts ...ConsumerOption) (*Consumer, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if stream == "" {
		return nil, errors.New("stream cannot be empty")
	}

	// 默認選項
	options := consumerOptions{
		logger:       slog.Default(),
		bufferSize:   100,
		blockTimeout: time.Second,
		lastID:       "$",
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}

	return &Consumer{
		client:  client,
		stream:  stream,
		lastID:  options.lastID,
		closed:  true,
		logger:  options.logger.With(slog.String("caller", "OfferEventConsumer"), slog.String("stream", stream)),
		options: options,
	}, nil
}

// Start 啟動背景消費 goroutine
func (s *Consumer) Start() {
	if !s.closed {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.downStream = make(chan offers.Event, s.options.bufferSize)
	s.closed = false
	s.cancelFunc = cancel
	s.logger.Info("starting offer event consumer")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.logger.Info("consumer goroutine stopped")
		defer close(s.downStream)

		for {
			select {
			case <-ctx.Done():
				return
			default:
				message, err := s.fetchNextMessage(ctx)
				if err != nil {
					if errors.Is(err, redis.Nil) {
						continue
					}
					if errors.Is(err, context.Canceled) {
						return
					}
					s.logger.Error("fetch event error", slog.Any("error", err))
					continue
				}

				event, err := decodeEvent(message.Values)
				if err != nil {
					s.logger.Error("failed to decode event",
						slog.String("messageId", message.ID),
						slog.Any("error", err))
					continue
				}

				select {
				case <-ctx.Done():
					return
				case s.downStream <- event:
					s.logger.Debug("event sent to downstream",
						slog.String("messageId", message.ID),
						slog.String("kind", string(event.Kind)))
				}
			}
		}
	}()
}

func (s *Consumer) fetchNextMessage(ctx context.Context) (redis.XMessage, error) {
	streams, err := s.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{s.stream, s.lastID},
		Count:   1,
		Block:   s.options.blockTimeout,
	}).Result()
	if err != nil {
		return redis.XMessage{}, err
	}

	if len(streams) > 0 && len(streams[0].Messages) > 0 {
		message := streams[0].Messages[0]
		s.lastID = message.ID
		return message, nil
	}
	return redis.XMessage{}, redis.Nil
}

// Subscribe 訂閱報價事件流
func (s *Consumer) Subscribe() <-chan offers.Event {
	return s.downStream
}

// Close 關閉消費者並等待背景 goroutine 結束
func (s *Consumer) Close() {
	if s.closed {
		return
	}
	s.logger.Info("closing offer event consumer")
	s.closed = true
	s.cancelFunc()
	s.wg.Wait()
	s.logger.Info("offer event consumer closed")
}
