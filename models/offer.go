package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OfferStatus 代表報價的狀態
// PENDING 與 COUNTERED 為活躍狀態，其餘皆為終態
type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "PENDING"
	OfferStatusCountered OfferStatus = "COUNTERED"
	OfferStatusAccepted  OfferStatus = "ACCEPTED"
	OfferStatusRejected  OfferStatus = "REJECTED"
	OfferStatusExpired   OfferStatus = "EXPIRED"
)

// OfferType 代表報價的種類，需與採購需求的議價模式相容
type OfferType string

const (
	OfferTypeDirect       OfferType = "DIRECT_OFFER"
	OfferTypeAuctionBid   OfferType = "AUCTION_BID"
	OfferTypeTenderBid    OfferType = "TENDER_BID"
	OfferTypeNegotiation  OfferType = "NEGOTIATION"
	OfferTypeCounterOffer OfferType = "COUNTER_OFFER"
)

// Offer 代表賣家針對採購需求提出的報價
// ParentOfferID 將還價串成一條議價鏈，同一條鏈上不允許出現環
type Offer struct {
	gorm.Model

	ID             uuid.UUID   `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	SellerID       uuid.UUID   `gorm:"type:uuid;not null;<-:create"`
	AccountID      uuid.UUID   `gorm:"type:uuid;not null;<-:create"`
	BuyAdID        uuid.UUID   `gorm:"type:uuid;not null;index;<-:create"`
	Status         OfferStatus `gorm:"type:varchar(16);not null;default:'PENDING'"`
	Type           OfferType   `gorm:"type:varchar(16);not null;<-:create"`
	Priority       int         `gorm:"type:integer;not null;default:0"`
	ProposedPrice  uint64      `gorm:"type:bigint;not null"`
	ProposedAmount uint64      `gorm:"type:bigint;not null"`
	Unit           string      `gorm:"type:varchar(32);not null"`
	DeliveryDays   int         `gorm:"type:integer;not null;default:0"`
	ShippingCost   uint64      `gorm:"type:bigint;not null;default:0"`
	ShippingDays   int         `gorm:"type:integer;not null;default:0"`
	WarrantyMonths int         `gorm:"type:integer;not null;default:0"`
	Certifications []string    `gorm:"type:text[];default:'{}'"`
	ValidityHours  *int        `gorm:"type:integer"`
	ExpiresAt      *time.Time  `gorm:"type:timestamp with time zone"`
	ParentOfferID  *uuid.UUID  `gorm:"type:uuid;<-:create"`
	ConversationID *uuid.UUID  `gorm:"type:uuid"`
	IsSeenByBuyer  bool        `gorm:"type:boolean;not null;default:false"`
	SeenByBuyerAt  *time.Time  `gorm:"type:timestamp with time zone"`
	BuyerRating    *float32    `gorm:"type:real"`
	SellerRating   *float32    `gorm:"type:real"`

	// 外鍵關聯
	Seller       *User          `gorm:"foreignKey:SellerID"`
	Account      *Account       `gorm:"foreignKey:AccountID"`
	BuyAd        *BuyAd         `gorm:"foreignKey:BuyAdID"`
	ParentOffer  *Offer         `gorm:"foreignKey:ParentOfferID"`
	ChildOffers  []Offer        `gorm:"foreignKey:ParentOfferID"`
	Conversation *Conversation  `gorm:"foreignKey:ConversationID"`
	Contents     []OfferContent `gorm:"foreignKey:OfferID"`
}

// Active 回報報價是否仍在活躍狀態
func (s OfferStatus) Active() bool {
	return s == OfferStatusPending || s == OfferStatusCountered
}

// ValidOfferType 檢查報價種類是否為已知值
func ValidOfferType(t OfferType) bool {
	switch t {
	case OfferTypeDirect, OfferTypeAuctionBid, OfferTypeTenderBid, OfferTypeNegotiation, OfferTypeCounterOffer:
		return true
	default:
		return false
	}
}
