package offers

import (
	"fmt"

	"bazar/models"
)

// EligibilityConditions 是所有議價模式共用的賣家資格限制
type EligibilityConditions struct {
	MinSellerRating        *float32
	RequiredCertifications []string
}

// BuyAdConditions 是依採購需求類型封閉的條件變體
// 在讀取 BuyAd 時解析一次，驗證引擎只消費型別化後的值
type BuyAdConditions interface {
	buyAdConditions()
	Eligibility() EligibilityConditions
}

// SimpleConditions 對應 SIMPLE 採購需求
type SimpleConditions struct {
	EligibilityConditions
}

// AuctionConditions 對應 AUCTION 採購需求
// BaseMinPrice 為 nil 時代表沒有底價限制
type AuctionConditions struct {
	EligibilityConditions
	BaseMinPrice *uint64
}

// TenderConditions 對應 TENDER 採購需求
type TenderConditions struct {
	EligibilityConditions
}

// NegotiationConditions 對應 NEGOTIATION 採購需求
type NegotiationConditions struct {
	EligibilityConditions
}

func (SimpleConditions) buyAdConditions()      {}
func (AuctionConditions) buyAdConditions()     {}
func (TenderConditions) buyAdConditions()      {}
func (NegotiationConditions) buyAdConditions() {}

func (c SimpleConditions) Eligibility() EligibilityConditions      { return c.EligibilityConditions }
func (c AuctionConditions) Eligibility() EligibilityConditions     { return c.EligibilityConditions }
func (c TenderConditions) Eligibility() EligibilityConditions      { return c.EligibilityConditions }
func (c NegotiationConditions) Eligibility() EligibilityConditions { return c.EligibilityConditions }

// ParseConditions 將採購需求上的 JSON 條件轉換成封閉變體
// 未知的採購需求類型會回傳錯誤
func ParseConditions(ad *models.BuyAd) (BuyAdConditions, error) {
	const op = "ParseConditions"
	eligibility := EligibilityConditions{
		MinSellerRating:        ad.Conditions.MinSellerRating,
		RequiredCertifications: ad.Conditions.RequiredCertifications,
	}
	switch ad.Type {
	case models.BuyAdTypeSimple:
		return SimpleConditions{eligibility}, nil
	case models.BuyAdTypeAuction:
		return AuctionConditions{
			EligibilityConditions: eligibility,
			BaseMinPrice:          ad.Conditions.BaseMinPrice,
		}, nil
	case models.BuyAdTypeTender:
		return TenderConditions{eligibility}, nil
	case models.BuyAdTypeNegotiation:
		return NegotiationConditions{eligibility}, nil
	default:
		return nil, fmt.Errorf("[%s] Unknown buy ad type: %s", op, ad.Type)
	}
}

// DefaultOfferType 回傳各採購需求類型對應的預設報價種類
func DefaultOfferType(adType models.BuyAdType) models.OfferType {
	switch adType {
	case models.BuyAdTypeAuction:
		return models.OfferTypeAuctionBid
	case models.BuyAdTypeTender:
		return models.OfferTypeTenderBid
	case models.BuyAdTypeNegotiation:
		return models.OfferTypeNegotiation
	default:
		return models.OfferTypeDirect
	}
}
