package offers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bazar/models"
)

// EventKind 代表報價生命週期事件的種類
type EventKind string

const (
	EventCreated   EventKind = "offer_created"
	EventCountered EventKind = "offer_countered"
	EventAccepted  EventKind = "offer_accepted"
	EventRejected  EventKind = "offer_rejected"
	EventWithdrawn EventKind = "offer_withdrawn"
	EventExpired   EventKind = "offer_expired"
)

// Event 是報價狀態轉移後發布的事件
// 透過 Redis Stream 廣播給訂閱採購需求即時動態的連線
type Event struct {
	Kind          EventKind          `msgpack:"kind"`
	OfferID       uuid.UUID          `msgpack:"offer_id"`
	BuyAdID       uuid.UUID          `msgpack:"buy_ad_id"`
	SellerID      uuid.UUID          `msgpack:"seller_id"`
	Status        models.OfferStatus `msgpack:"status"`
	ProposedPrice uint64             `msgpack:"proposed_price"`
	At            time.Time          `msgpack:"at"`
}

// IPublisher 定義了事件發布的操作介面
// 發布失敗只記錄日誌，不影響主要寫入流程
type IPublisher interface {
	Publish(event Event) error
}

// IInvalidator 定義了快取失效的操作介面
// 只暴露以標籤為單位的失效，不假設底層支援萬用字元刪除
type IInvalidator interface {
	InvalidateTags(ctx context.Context, tags ...string) error
}

// 快取標籤，任何報價異動都會使這三類標籤失效
func OfferTag(id uuid.UUID) string       { return "offer:" + id.String() }
func BuyAdOffersTag(id uuid.UUID) string { return "buyad-offers:" + id.String() }
func UserOffersTag(id uuid.UUID) string  { return "user-offers:" + id.String() }
