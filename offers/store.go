package offers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bazar/models"
)

// SortKey 是報價列表支援的排序方式
type SortKey string

const (
	SortNewest       SortKey = "newest"
	SortOldest       SortKey = "oldest"
	SortPriceLow     SortKey = "price_low"
	SortPriceHigh    SortKey = "price_high"
	SortDeliveryFast SortKey = "delivery_fast"
)

// ValidSortKey 檢查排序方式是否為已知值
func ValidSortKey(k SortKey) bool {
	switch k {
	case SortNewest, SortOldest, SortPriceLow, SortPriceHigh, SortDeliveryFast:
		return true
	default:
		return false
	}
}

// ListFilter 描述報價列表查詢的過濾與分頁條件
type ListFilter struct {
	SellerID   *uuid.UUID
	AccountID  *uuid.UUID
	BuyAdID    *uuid.UUID
	Status     *models.OfferStatus
	Type       *models.OfferType
	PublicOnly bool // 只列出允許公開報價的採購需求底下的報價

	Page  int
	Limit int
	Sort  SortKey
}

// StatusCount 是依狀態分組的報價數量
type StatusCount struct {
	Status models.OfferStatus
	Count  int64
}

// TypeCount 是依種類分組的報價數量
type TypeCount struct {
	Type  models.OfferType
	Count int64
}

// Store 是報價生命週期服務的持久層閘道
// InTransaction 提供不可分割的多敘述執行能力，生命週期服務
// 將它視為不透明的 unit-of-work，不依賴任何特定的儲存技術
type Store interface {
	// InTransaction 在單一交易中執行 fn，fn 內透過傳入的 Store 做的
	// 所有寫入要麼全部落地，要麼全部回滾
	InTransaction(ctx context.Context, fn func(Store) error) error

	BuyAd(ctx context.Context, id uuid.UUID) (*models.BuyAd, error)
	SaveBuyAd(ctx context.Context, ad *models.BuyAd) error
	// RecountBuyAdOffers 重新計算採購需求的報價總數並更新 last_offer_at
	RecountBuyAdOffers(ctx context.Context, buyAdID uuid.UUID, at time.Time) error

	User(ctx context.Context, id uuid.UUID) (*models.User, error)
	Account(ctx context.Context, id uuid.UUID) (*models.Account, error)
	IsAccountMember(ctx context.Context, accountID, userID uuid.UUID) (bool, error)

	Offer(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	OfferWithChain(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	CreateOffer(ctx context.Context, offer *models.Offer) error
	SaveOffer(ctx context.Context, offer *models.Offer) error
	DeleteOffer(ctx context.Context, offer *models.Offer) error
	ListOffers(ctx context.Context, filter ListFilter) ([]models.Offer, int64, error)
	// CountActiveBySeller 統計賣家在某採購需求底下 PENDING/COUNTERED 的報價數
	CountActiveBySeller(ctx context.Context, buyAdID, sellerID uuid.UUID) (int64, error)
	// Siblings 取得同一採購需求底下排除指定報價後的其他報價
	// onlyActive 為 true 時只回傳 PENDING/COUNTERED 的報價
	Siblings(ctx context.Context, buyAdID, excludeOfferID uuid.UUID, onlyActive bool) ([]models.Offer, error)
	UpdateStatuses(ctx context.Context, ids []uuid.UUID, status models.OfferStatus) error
	// StaleOffers 取得已過期但仍為 PENDING 的報價
	StaleOffers(ctx context.Context, now time.Time, limit int) ([]models.Offer, error)

	UpsertContents(ctx context.Context, offerID uuid.UUID, contents []models.OfferContent) error

	CreateConversation(ctx context.Context, conversation *models.Conversation) error
	CreateMessage(ctx context.Context, message *models.Message) error

	// 統計查詢
	SellerOfferCounts(ctx context.Context, sellerID uuid.UUID) (total int64, accepted int64, err error)
	CountsByStatus(ctx context.Context, since time.Time) ([]StatusCount, error)
	CountsByType(ctx context.Context, since time.Time) ([]TypeCount, error)
}
