package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bazar/offers"
)

// Force an expiry sweep without waiting for the worker
// (POST /admin/offers/expire-check)
func (impl *ServerImpl) RunExpireCheck(c *gin.Context) {
	expired, err := impl.runExpirySweep(c.Request.Context())
	if err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired": expired})
}

// Site-wide offer breakdown for admins
// (GET /admin/offers/stats)
func (impl *ServerImpl) GetOfferStats(c *gin.Context) {
	window := offers.StatsWindow(c.DefaultQuery("window", string(offers.Window30Days)))
	stats, err := impl.statsReader.AdminBreakdown(c.Request.Context(), window)
	if err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
