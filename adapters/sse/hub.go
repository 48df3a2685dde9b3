package sse

import (
	"errors"
	"log/slog"
	"sync"

	"bazar/offers"
)

var ErrHubClosed = errors.New("hub is closed")

type hubOptions struct {
	logger     *slog.Logger
	bufferSize int
}

type HubOption func(*hubOptions)

// WithHubLogger 設置日誌記錄器
func WithHubLogger(logger *slog.Logger) HubOption {
	return func(o *hubOptions) {
		o.logger = logger
	}
}

// WithHubBufferSize 設置每個訂閱者通道的緩衝大小
func WithHubBufferSize(size int) HubOption {
	return func(o *hubOptions) {
		o.bufferSize = size
	}
}

// IHub 定義了報價事件廣播的操作介面
type IHub interface {
	Subscribe(topic string) (<-chan offers.Event, error)
	Unsubscribe(topic string, ch <-chan offers.Event)
	Broadcast(event offers.Event)
	Close()
}

// Hub 把報價事件廣播給訂閱中的 SSE 連線
//
// 主題以採購需求的 ID 為鍵，一個主題底下可以有多個訂閱者。
// 廣播是非阻塞的: 訂閱者的緩衝滿了就丟棄該則事件，
// 慢速的連線不會拖住其他訂閱者
type Hub struct {
	mu      sync.RWMutex
	wg      sync.WaitGroup
	topics  map[string]map[<-chan offers.Event]chan offers.Event
	closed  bool
	logger  *slog.Logger
	options hubOptions
}

// NewHub 建立事件廣播中心
func NewHub(opts ...HubOption) *Hub {
	// 默認選項
	options := hubOptions{
		logger:     slog.Default(),
		bufferSize: 16,
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}

	return &Hub{
		topics:  make(map[string]map[<-chan offers.Event]chan offers.Event),
		logger:  options.logger.With(slog.String("caller", "OfferEventHub")),
		options: options,
	}
}

// Attach 把事件來源接上廣播中心
// events 關閉後背景 goroutine 會自行結束
func (h *Hub) Attach(events <-chan offers.Event) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for event := range events {
			h.Broadcast(event)
		}
	}()
}

// Subscribe 訂閱指定採購需求的報價事件
func (h *Hub) Subscribe(topic string) (<-chan offers.Event, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	subscribers, ok := h.topics[topic]
	if !ok {
		subscribers = make(map[<-chan offers.Event]chan offers.Event)
		h.topics[topic] = subscribers
	}
	ch := make(chan offers.Event, h.options.bufferSize)
	subscribers[ch] = ch
	return ch, nil
}

// Unsubscribe 取消訂閱並關閉通道
// 主題底下沒有任何訂閱者時整個主題會被移除
func (h *Hub) Unsubscribe(topic string, ch <-chan offers.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subscribers, ok := h.topics[topic]
	if !ok {
		return
	}
	if writeCh, exists := subscribers[ch]; exists {
		delete(subscribers, ch)
		close(writeCh)
	}
	if len(subscribers) == 0 {
		delete(h.topics, topic)
	}
}

// Broadcast 把事件送給訂閱對應採購需求的所有連線
func (h *Hub) Broadcast(event offers.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subscribers, ok := h.topics[event.BuyAdID.String()]
	if !ok {
		return
	}
	for _, writeCh := range subscribers {
		select {
		case writeCh <- event:
		default:
			// 訂閱者的緩衝已滿，丟棄事件
			h.logger.Debug("dropping event for slow subscriber",
				slog.String("buyAdID", event.BuyAdID.String()),
				slog.String("kind", string(event.Kind)))
		}
	}
}

// Close 關閉所有訂閱者的通道並停止廣播
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for _, subscribers := range h.topics {
		for _, writeCh := range subscribers {
			close(writeCh)
		}
	}
	clear(h.topics)
	h.mu.Unlock()
	h.wg.Wait()
}
