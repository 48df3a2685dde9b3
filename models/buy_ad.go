package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BuyAdType 代表採購需求的議價模式
type BuyAdType string

const (
	BuyAdTypeSimple      BuyAdType = "SIMPLE"
	BuyAdTypeAuction     BuyAdType = "AUCTION"
	BuyAdTypeTender      BuyAdType = "TENDER"
	BuyAdTypeNegotiation BuyAdType = "NEGOTIATION"
)

// BuyAdStatus 代表採購需求的狀態
type BuyAdStatus string

const (
	BuyAdStatusPending   BuyAdStatus = "PENDING"
	BuyAdStatusApproved  BuyAdStatus = "APPROVED"
	BuyAdStatusFulfilled BuyAdStatus = "FULFILLED"
	BuyAdStatusClosed    BuyAdStatus = "CLOSED"
)

// BuyAdConditions 是採購需求附帶的限制條件
// 以 JSON 序列化儲存，讀取時由 offers 套件轉換成依類型封閉的變體
type BuyAdConditions struct {
	BaseMinPrice           *uint64  `json:"base_min_price,omitempty"`
	MinSellerRating        *float32 `json:"min_seller_rating,omitempty"`
	RequiredCertifications []string `json:"required_certifications,omitempty"`
}

// BuyAd 代表買家發佈的採購需求
// 報價的建立、刪除與過期都會同步更新 TotalOffers 與 LastOfferAt
type BuyAd struct {
	gorm.Model

	ID                uuid.UUID       `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	UserID            uuid.UUID       `gorm:"type:uuid;not null;<-:create"`
	Title             string          `gorm:"type:varchar(255);not null"`
	Type              BuyAdType       `gorm:"type:varchar(16);not null;<-:create"`
	Status            BuyAdStatus     `gorm:"type:varchar(16);not null;default:'PENDING'"`
	Unit              string          `gorm:"type:varchar(32);not null"`
	Conditions        BuyAdConditions `gorm:"serializer:json"`
	AllowPublicOffers bool            `gorm:"type:boolean;not null;default:false"`
	TotalOffers       int64           `gorm:"type:integer;not null;default:0"`
	LastOfferAt       *time.Time      `gorm:"type:timestamp with time zone"`
	FulfilledAt       *time.Time      `gorm:"type:timestamp with time zone"`
	ExpiresAt         *time.Time      `gorm:"type:timestamp with time zone"`

	// 外鍵關聯
	User   *User   `gorm:"foreignKey:UserID"`
	Offers []Offer `gorm:"foreignKey:BuyAdID"`
}
