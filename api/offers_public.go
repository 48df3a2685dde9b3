package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bazar/adapters/cache"
	"bazar/models"
	"bazar/offers"
)

// List featured offers across public buy ads
// (GET /offers/featured)
func (impl *ServerImpl) ListFeaturedOffers(c *gin.Context) {
	lang := requestLanguage(c)
	filter, ok := impl.bindListFilter(c)
	if !ok {
		return
	}
	filter.PublicOnly = true
	status := models.OfferStatusPending
	filter.Status = &status

	// 全站列表沒有細緻的失效標籤，靠短TTL自然過期
	key := fmt.Sprintf("offers:featured:%s:%d:%d:%s", lang, filter.Page, filter.Limit, filter.Sort)
	previews, err := cache.Remember(c.Request.Context(), impl.cache, key, nil, func() ([]OfferPreview, error) {
		items, _, err := impl.offerService.List(c.Request.Context(), filter)
		if err != nil {
			return nil, err
		}
		return newOfferPreviews(items, lang), nil
	})
	if err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": previews})
}

// List accepted offers on public buy ads
// (GET /offers/success-stories)
func (impl *ServerImpl) ListSuccessStories(c *gin.Context) {
	lang := requestLanguage(c)
	filter, ok := impl.bindListFilter(c)
	if !ok {
		return
	}
	filter.PublicOnly = true
	status := models.OfferStatusAccepted
	filter.Status = &status

	key := fmt.Sprintf("offers:success:%s:%d:%d:%s", lang, filter.Page, filter.Limit, filter.Sort)
	previews, err := cache.Remember(c.Request.Context(), impl.cache, key, nil, func() ([]OfferPreview, error) {
		items, _, err := impl.offerService.List(c.Request.Context(), filter)
		if err != nil {
			return nil, err
		}
		return newOfferPreviews(items, lang), nil
	})
	if err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": previews})
}

// OfferPreview 是匿名訪客看到的報價摘要:
// 價格、截短的說明與賣家的顯示名稱，不含任何聯絡方式
type OfferPreview struct {
	ID             uuid.UUID          `json:"id"`
	Status         models.OfferStatus `json:"status"`
	Type           models.OfferType   `json:"type"`
	ProposedPrice  uint64             `json:"proposed_price"`
	ProposedAmount uint64             `json:"proposed_amount"`
	Unit           string             `json:"unit"`
	DeliveryDays   int                `json:"delivery_days"`
	SellerName     string             `json:"seller_name,omitempty"`
	Description    string             `json:"description,omitempty"`
}

const previewDescriptionLimit = 160

// truncate 依 rune 截短字串，避免把多位元組字元切成半個
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}

func newOfferPreviews(items []models.Offer, lang string) []OfferPreview {
	previews := make([]OfferPreview, 0, len(items))
	for i := range items {
		item := &items[i]
		preview := OfferPreview{
			ID:             item.ID,
			Status:         item.Status,
			Type:           item.Type,
			ProposedPrice:  item.ProposedPrice,
			ProposedAmount: item.ProposedAmount,
			Unit:           item.Unit,
			DeliveryDays:   item.DeliveryDays,
			Description:    truncate(resolveDescription(item.Contents, lang), previewDescriptionLimit),
		}
		if item.Seller != nil {
			preview.SellerName = item.Seller.DisplayName
		}
		previews = append(previews, preview)
	}
	return previews
}

// Preview offers on a public buy ad
// (GET /buy-ads/{buyAdID}/offers/preview)
func (impl *ServerImpl) PreviewBuyAdOffers(c *gin.Context) {
	buyAdID, err := uuid.Parse(c.Param("buyAdID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid buy ad id"})
		return
	}

	lang := requestLanguage(c)
	key := "offers:preview:" + buyAdID.String() + ":" + lang
	tags := []string{offers.BuyAdOffersTag(buyAdID)}
	previews, err := cache.Remember(c.Request.Context(), impl.cache, key, tags, func() ([]OfferPreview, error) {
		ad, err := impl.store.BuyAd(c.Request.Context(), buyAdID)
		if err != nil {
			return nil, &offers.NotFoundError{Entity: "buy ad"}
		}
		if !ad.AllowPublicOffers {
			return nil, &offers.ForbiddenError{Reason: "offers on this buy ad are not public"}
		}
		pending := models.OfferStatusPending
		items, _, err := impl.offerService.List(c.Request.Context(), offers.ListFilter{
			BuyAdID: &buyAdID,
			Status:  &pending,
			Limit:   20,
			Page:    1,
			Sort:    offers.SortPriceLow,
		})
		if err != nil {
			return nil, err
		}
		return newOfferPreviews(items, lang), nil
	})
	if err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": previews})
}

// Get public stats of a seller
// (GET /sellers/{sellerID}/stats)
func (impl *ServerImpl) GetSellerStats(c *gin.Context) {
	sellerID, err := uuid.Parse(c.Param("sellerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid seller id"})
		return
	}

	key := "sellers:stats:" + sellerID.String()
	tags := []string{offers.UserOffersTag(sellerID)}
	stats, err := cache.Remember(c.Request.Context(), impl.cache, key, tags, func() (offers.SellerStats, error) {
		return impl.statsReader.SellerSuccessRate(c.Request.Context(), sellerID)
	})
	if err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
