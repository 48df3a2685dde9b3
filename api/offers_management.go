package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bazar/offers"
)

// List offers on the caller's buy ad
// (GET /buy-ads/{buyAdID}/offers)
func (impl *ServerImpl) ListBuyAdOffers(c *gin.Context) {
	buyAdID, err := uuid.Parse(c.Param("buyAdID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid buy ad id"})
		return
	}
	filter, ok := impl.bindListFilter(c)
	if !ok {
		return
	}

	items, total, err := impl.offerService.ListForBuyAd(c.Request.Context(), currentUserID(c), buyAdID, filter)
	if err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPagedOffers(items, total, filter, requestLanguage(c)))
}

// Accept a pending offer
// (POST /offers/{offerID}/accept)
func (impl *ServerImpl) AcceptOffer(c *gin.Context) {
	offerID, err := uuid.Parse(c.Param("offerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid offer id"})
		return
	}
	offer, err := impl.offerService.Accept(c.Request.Context(), currentUserID(c), offerID)
	if err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOfferView(offer, requestLanguage(c)))
}

// RejectOfferRequest 是拒絕報價的請求
type RejectOfferRequest struct {
	Reason string `json:"reason"`
}

// Reject a pending offer
// (POST /offers/{offerID}/reject)
func (impl *ServerImpl) RejectOffer(c *gin.Context) {
	offerID, err := uuid.Parse(c.Param("offerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid offer id"})
		return
	}
	var request RejectOfferRequest
	if err := c.ShouldBindJSON(&request); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}
	offer, err := impl.offerService.Reject(c.Request.Context(), currentUserID(c), offerID, request.Reason)
	if err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOfferView(offer, requestLanguage(c)))
}

// CounterOfferRequest 是買家還價的請求，省略的欄位沿用原報價
type CounterOfferRequest struct {
	ProposedPrice  *uint64            `json:"proposed_price"`
	ProposedAmount *uint64            `json:"proposed_amount"`
	DeliveryDays   *int               `json:"delivery_days"`
	ShippingCost   *uint64            `json:"shipping_cost"`
	ShippingDays   *int               `json:"shipping_days"`
	WarrantyMonths *int               `json:"warranty_months"`
	ValidityHours  *int               `json:"validity_hours"`
	Contents       []OfferContentView `json:"contents"`
}

// Counter a pending offer
// (POST /offers/{offerID}/counter)
func (impl *ServerImpl) CounterOffer(c *gin.Context) {
	offerID, err := uuid.Parse(c.Param("offerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid offer id"})
		return
	}
	var request CounterOfferRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}
	offer, err := impl.offerService.Counter(c.Request.Context(), currentUserID(c), offerID, offers.CounterInput{
		ProposedPrice:  request.ProposedPrice,
		ProposedAmount: request.ProposedAmount,
		DeliveryDays:   request.DeliveryDays,
		ShippingCost:   request.ShippingCost,
		ShippingDays:   request.ShippingDays,
		WarrantyMonths: request.WarrantyMonths,
		ValidityHours:  request.ValidityHours,
		Contents:       newContentInputs(request.Contents),
	})
	if err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newOfferView(offer, requestLanguage(c)))
}

// Mark an offer as seen by the buyer
// (POST /offers/{offerID}/seen)
func (impl *ServerImpl) MarkOfferSeen(c *gin.Context) {
	offerID, err := uuid.Parse(c.Param("offerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid offer id"})
		return
	}
	if err := impl.offerService.MarkSeen(c.Request.Context(), currentUserID(c), offerID); err != nil {
		impl.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ChainNodeView 是議價鏈上的一個節點
type ChainNodeView struct {
	Offer OfferView `json:"offer"`
	Depth int       `json:"depth"`
}

// Rebuild the negotiation chain of an offer
// (GET /offers/{offerID}/chain)
func (impl *ServerImpl) GetNegotiationChain(c *gin.Context) {
	offerID, err := uuid.Parse(c.Param("offerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid offer id"})
		return
	}
	chain, err := impl.statsReader.NegotiationChain(c.Request.Context(), offerID)
	if err != nil {
		impl.respondError(c, err)
		return
	}

	lang := requestLanguage(c)
	views := make([]ChainNodeView, 0, len(chain))
	for i := range chain {
		views = append(views, ChainNodeView{
			Offer: newOfferView(&chain[i].Offer, lang),
			Depth: chain[i].Depth,
		})
	}
	c.JSON(http.StatusOK, gin.H{"chain": views})
}

// Track live offer events on a buy ad
// (GET /buy-ads/{buyAdID}/offers/events)
func (impl *ServerImpl) StreamBuyAdOfferEvents(c *gin.Context) {
	buyAdID, err := uuid.Parse(c.Param("buyAdID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid buy ad id"})
		return
	}
	// 只有採購需求的擁有者可以訂閱即時動態
	ad, err := impl.store.BuyAd(c.Request.Context(), buyAdID)
	if err != nil {
		impl.respondError(c, &offers.NotFoundError{Entity: "buy ad"})
		return
	}
	if ad.UserID != currentUserID(c) {
		impl.respondForbidden(c)
		return
	}

	// SSE請求合法，開始初始化串流
	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Transfer-Encoding", "chunked")
	ch, err := impl.hub.Subscribe(buyAdID.String())
	if err != nil {
		impl.respondError(c, err)
		return
	}
	defer impl.hub.Unsubscribe(buyAdID.String(), ch)

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			c.SSEvent(string(event.Kind), gin.H{
				"offer_id":       event.OfferID,
				"status":         event.Status,
				"proposed_price": event.ProposedPrice,
				"at":             event.At,
			})
			w.Flush()
		// 30秒沒有事件就發送一個空行，確保瀏覽器和反向代理不會斷開連線
		case <-time.After(30 * time.Second):
			w.WriteString("\n\n")
			w.Flush()
		}
	}
}
