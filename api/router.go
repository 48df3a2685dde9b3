package api

import (
	"github.com/gin-gonic/gin"
)

// NewRouter 建立路由表
// 路由分成三層: 公開、需要登入、需要管理員
func NewRouter(impl *ServerImpl) *gin.Engine {
	router := gin.Default()
	router.Use(languageMiddleware())

	v1 := router.Group("/api/v1")

	// 公開端點
	v1.POST("/auth/token", impl.IssueToken)
	v1.GET("/plans", impl.ListPlans)
	v1.GET("/brands", impl.ListBrands)
	v1.GET("/brands/:slug", impl.GetBrand)
	v1.GET("/offers/featured", impl.ListFeaturedOffers)
	v1.GET("/offers/success-stories", impl.ListSuccessStories)
	v1.GET("/buy-ads/:buyAdID/offers/preview", impl.PreviewBuyAdOffers)
	v1.GET("/sellers/:sellerID/stats", impl.GetSellerStats)

	// 需要登入的端點
	authed := v1.Group("", impl.authMiddleware())
	{
		authed.GET("/me", impl.GetMe)
		authed.POST("/accounts", impl.CreateAccount)
		authed.POST("/accounts/:accountID/members", impl.AddAccountMember)
		authed.GET("/accounts/:accountID/transactions", impl.ListCreditTransactions)
		authed.POST("/accounts/:accountID/charge", impl.ChargeAccount)
		authed.POST("/accounts/:accountID/purchase", impl.PurchasePlan)

		authed.POST("/offers", impl.CreateOffer)
		authed.GET("/my/offers", impl.ListMyOffers)
		authed.GET("/offers/:offerID", impl.GetOffer)
		authed.PATCH("/offers/:offerID", impl.UpdateOffer)
		authed.DELETE("/offers/:offerID", impl.WithdrawOffer)
		authed.GET("/offers/:offerID/chain", impl.GetNegotiationChain)
		authed.POST("/offers/:offerID/accept", impl.AcceptOffer)
		authed.POST("/offers/:offerID/reject", impl.RejectOffer)
		authed.POST("/offers/:offerID/counter", impl.CounterOffer)
		authed.POST("/offers/:offerID/seen", impl.MarkOfferSeen)
		authed.POST("/offers/:offerID/attachments", impl.UploadOfferAttachment)

		authed.GET("/buy-ads/:buyAdID/offers", impl.ListBuyAdOffers)
		authed.GET("/buy-ads/:buyAdID/offers/events", impl.StreamBuyAdOfferEvents)
	}

	// 管理端點
	admin := v1.Group("/admin", impl.authMiddleware(), impl.adminMiddleware())
	{
		admin.POST("/offers/expire-check", impl.RunExpireCheck)
		admin.GET("/offers/stats", impl.GetOfferStats)
		admin.POST("/plans", impl.CreatePlan)
		admin.POST("/brands", impl.CreateBrand)
		admin.PUT("/brands/:slug", impl.UpdateBrand)
		admin.DELETE("/brands/:slug", impl.DeleteBrand)
	}

	return router
}
