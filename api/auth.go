package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bazar/models"
	"bazar/offers"
)

// IssueTokenRequest 是簽發存取權杖的請求
type IssueTokenRequest struct {
	Username string `json:"username" binding:"required,max=255"`
}

// Issue an access token for an existing user
// (POST /auth/token)
//
// 這是給測試與維運引導用的端點，只有設定了簽發金鑰的實例才有作用；
// 正式環境的權杖由獨立的身份服務簽發，這裡的實例只持有驗證用公鑰
func (impl *ServerImpl) IssueToken(c *gin.Context) {
	var request IssueTokenRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}
	if !impl.tokens.CanIssue() {
		impl.respondForbidden(c)
		return
	}

	var user models.User
	if err := impl.db.WithContext(c.Request.Context()).First(&user, "username = ?", request.Username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			impl.respondError(c, &offers.NotFoundError{Entity: "user"})
			return
		}
		impl.respondError(c, err)
		return
	}

	token, err := impl.tokens.Issue(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"token_type": "Bearer",
	})
}
