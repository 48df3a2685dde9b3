package api

import (
	"time"

	"github.com/google/uuid"

	"bazar/i18n"
	"bazar/models"
	"bazar/offers"
)

// OfferContentView 是單一語言的報價內容
type OfferContentView struct {
	Language         string `json:"language"`
	Description      string `json:"description"`
	PackagingDetails string `json:"packaging_details,omitempty"`
}

// OfferView 是報價的對外表示
// Description 依請求語言解析，Contents 則包含所有語言的內容
type OfferView struct {
	ID             uuid.UUID          `json:"id"`
	BuyAdID        uuid.UUID          `json:"buy_ad_id"`
	SellerID       uuid.UUID          `json:"seller_id"`
	AccountID      uuid.UUID          `json:"account_id"`
	Status         models.OfferStatus `json:"status"`
	Type           models.OfferType   `json:"type"`
	Priority       int                `json:"priority"`
	ProposedPrice  uint64             `json:"proposed_price"`
	ProposedAmount uint64             `json:"proposed_amount"`
	Unit           string             `json:"unit"`
	DeliveryDays   int                `json:"delivery_days"`
	ShippingCost   uint64             `json:"shipping_cost"`
	ShippingDays   int                `json:"shipping_days"`
	WarrantyMonths int                `json:"warranty_months"`
	Certifications []string           `json:"certifications"`
	ValidityHours  *int               `json:"validity_hours,omitempty"`
	ExpiresAt      *time.Time         `json:"expires_at,omitempty"`
	ParentOfferID  *uuid.UUID         `json:"parent_offer_id,omitempty"`
	ConversationID *uuid.UUID         `json:"conversation_id,omitempty"`
	IsSeenByBuyer  bool               `json:"is_seen_by_buyer"`
	SeenByBuyerAt  *time.Time         `json:"seen_by_buyer_at,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	Description    string             `json:"description,omitempty"`
	Contents       []OfferContentView `json:"contents,omitempty"`
}

// PagedOffers 是分頁的報價列表
type PagedOffers struct {
	Items []OfferView `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

func newOfferView(offer *models.Offer, lang string) OfferView {
	view := OfferView{
		ID:             offer.ID,
		BuyAdID:        offer.BuyAdID,
		SellerID:       offer.SellerID,
		AccountID:      offer.AccountID,
		Status:         offer.Status,
		Type:           offer.Type,
		Priority:       offer.Priority,
		ProposedPrice:  offer.ProposedPrice,
		ProposedAmount: offer.ProposedAmount,
		Unit:           offer.Unit,
		DeliveryDays:   offer.DeliveryDays,
		ShippingCost:   offer.ShippingCost,
		ShippingDays:   offer.ShippingDays,
		WarrantyMonths: offer.WarrantyMonths,
		Certifications: offer.Certifications,
		ValidityHours:  offer.ValidityHours,
		ExpiresAt:      offer.ExpiresAt,
		ParentOfferID:  offer.ParentOfferID,
		ConversationID: offer.ConversationID,
		IsSeenByBuyer:  offer.IsSeenByBuyer,
		SeenByBuyerAt:  offer.SeenByBuyerAt,
		CreatedAt:      offer.CreatedAt,
	}
	for _, content := range offer.Contents {
		view.Contents = append(view.Contents, OfferContentView{
			Language:         content.Language,
			Description:      content.Description,
			PackagingDetails: content.PackagingDetails,
		})
	}
	view.Description = resolveDescription(offer.Contents, lang)
	return view
}

// resolveDescription 依請求語言挑出內容，找不到時回退到預設語言，
// 再不行就取第一個
func resolveDescription(contents []models.OfferContent, lang string) string {
	var fallback string
	for _, content := range contents {
		if content.Language == lang {
			return content.Description
		}
		if content.Language == i18n.DefaultLanguage {
			fallback = content.Description
		}
	}
	if fallback == "" && len(contents) > 0 {
		fallback = contents[0].Description
	}
	return fallback
}

func newPagedOffers(items []models.Offer, total int64, filter offers.ListFilter, lang string) PagedOffers {
	page := PagedOffers{
		Items: make([]OfferView, 0, len(items)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range items {
		page.Items = append(page.Items, newOfferView(&items[i], lang))
	}
	return page
}

func newContentInputs(contents []OfferContentView) []offers.ContentInput {
	inputs := make([]offers.ContentInput, 0, len(contents))
	for _, content := range contents {
		inputs = append(inputs, offers.ContentInput{
			Language:         content.Language,
			Description:      content.Description,
			PackagingDetails: content.PackagingDetails,
		})
	}
	return inputs
}
