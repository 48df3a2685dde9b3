package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bazar/models"
	"bazar/offers"
)

// CreateOfferRequest 是賣家建立報價的請求
type CreateOfferRequest struct {
	BuyAdID        uuid.UUID          `json:"buy_ad_id" binding:"required"`
	AccountID      uuid.UUID          `json:"account_id" binding:"required"`
	Type           models.OfferType   `json:"type"`
	Priority       int                `json:"priority"`
	ProposedPrice  uint64             `json:"proposed_price" binding:"required"`
	ProposedAmount uint64             `json:"proposed_amount" binding:"required"`
	Unit           string             `json:"unit" binding:"required"`
	DeliveryDays   int                `json:"delivery_days"`
	ShippingCost   uint64             `json:"shipping_cost"`
	ShippingDays   int                `json:"shipping_days"`
	WarrantyMonths int                `json:"warranty_months"`
	Certifications []string           `json:"certifications"`
	ValidityHours  *int               `json:"validity_hours"`
	Contents       []OfferContentView `json:"contents" binding:"required,min=1"`
}

// Submit a new offer
// (POST /offers)
func (impl *ServerImpl) CreateOffer(c *gin.Context) {
	var request CreateOfferRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}
	if request.Type != "" && !models.ValidOfferType(request.Type) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid offer type"})
		return
	}

	offer, err := impl.offerService.Create(c.Request.Context(), currentUserID(c), offers.CreateInput{
		BuyAdID:        request.BuyAdID,
		AccountID:      request.AccountID,
		Type:           request.Type,
		Priority:       request.Priority,
		ProposedPrice:  request.ProposedPrice,
		ProposedAmount: request.ProposedAmount,
		Unit:           request.Unit,
		DeliveryDays:   request.DeliveryDays,
		ShippingCost:   request.ShippingCost,
		ShippingDays:   request.ShippingDays,
		WarrantyMonths: request.WarrantyMonths,
		Certifications: request.Certifications,
		ValidityHours:  request.ValidityHours,
		Contents:       newContentInputs(request.Contents),
	})
	if err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newOfferView(offer, requestLanguage(c)))
}

// UpdateOfferRequest 是賣家修改報價的請求，省略的欄位不變更
type UpdateOfferRequest struct {
	Priority       *int               `json:"priority"`
	ProposedPrice  *uint64            `json:"proposed_price"`
	ProposedAmount *uint64            `json:"proposed_amount"`
	DeliveryDays   *int               `json:"delivery_days"`
	ShippingCost   *uint64            `json:"shipping_cost"`
	ShippingDays   *int               `json:"shipping_days"`
	WarrantyMonths *int               `json:"warranty_months"`
	Certifications []string           `json:"certifications"`
	ValidityHours  *int               `json:"validity_hours"`
	Contents       []OfferContentView `json:"contents"`
}

// Edit a pending offer
// (PATCH /offers/{offerID})
func (impl *ServerImpl) UpdateOffer(c *gin.Context) {
	offerID, err := uuid.Parse(c.Param("offerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid offer id"})
		return
	}
	var request UpdateOfferRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	offer, err := impl.offerService.Update(c.Request.Context(), currentUserID(c), offerID, offers.UpdateInput{
		Priority:       request.Priority,
		ProposedPrice:  request.ProposedPrice,
		ProposedAmount: request.ProposedAmount,
		DeliveryDays:   request.DeliveryDays,
		ShippingCost:   request.ShippingCost,
		ShippingDays:   request.ShippingDays,
		WarrantyMonths: request.WarrantyMonths,
		Certifications: request.Certifications,
		ValidityHours:  request.ValidityHours,
		Contents:       newContentInputs(request.Contents),
	})
	if err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOfferView(offer, requestLanguage(c)))
}

// Withdraw a pending offer
// (DELETE /offers/{offerID})
func (impl *ServerImpl) WithdrawOffer(c *gin.Context) {
	offerID, err := uuid.Parse(c.Param("offerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid offer id"})
		return
	}
	if err := impl.offerService.Withdraw(c.Request.Context(), currentUserID(c), offerID); err != nil {
		impl.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get a single offer
// (GET /offers/{offerID})
func (impl *ServerImpl) GetOffer(c *gin.Context) {
	offerID, err := uuid.Parse(c.Param("offerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid offer id"})
		return
	}
	offer, err := impl.offerService.Get(c.Request.Context(), offerID)
	if err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOfferView(offer, requestLanguage(c)))
}

// List the caller's offers
// (GET /my/offers)
func (impl *ServerImpl) ListMyOffers(c *gin.Context) {
	sellerID := currentUserID(c)
	filter, ok := impl.bindListFilter(c)
	if !ok {
		return
	}
	filter.SellerID = &sellerID

	items, total, err := impl.offerService.List(c.Request.Context(), filter)
	if err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPagedOffers(items, total, filter, requestLanguage(c)))
}

// bindListFilter 解析列表查詢的過濾與分頁參數
func (impl *ServerImpl) bindListFilter(c *gin.Context) (offers.ListFilter, bool) {
	var query struct {
		Status    string `form:"status"`
		Type      string `form:"type"`
		BuyAdID   string `form:"buy_ad_id"`
		AccountID string `form:"account_id"`
		Page      int    `form:"page,default=1"`
		Limit     int    `form:"limit,default=20"`
		Sort      string `form:"sort_by,default=newest"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return offers.ListFilter{}, false
	}
	filter := offers.ListFilter{
		Page:  query.Page,
		Limit: min(query.Limit, 100),
		Sort:  offers.SortKey(query.Sort),
	}
	if query.BuyAdID != "" {
		buyAdID, err := uuid.Parse(query.BuyAdID)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid buy ad id"})
			return offers.ListFilter{}, false
		}
		filter.BuyAdID = &buyAdID
	}
	if query.AccountID != "" {
		accountID, err := uuid.Parse(query.AccountID)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid account id"})
			return offers.ListFilter{}, false
		}
		filter.AccountID = &accountID
	}
	if !offers.ValidSortKey(filter.Sort) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid sort key"})
		return offers.ListFilter{}, false
	}
	if query.Status != "" {
		status := models.OfferStatus(query.Status)
		filter.Status = &status
	}
	if query.Type != "" {
		offerType := models.OfferType(query.Type)
		if !models.ValidOfferType(offerType) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid offer type"})
			return offers.ListFilter{}, false
		}
		filter.Type = &offerType
	}
	return filter, true
}
