package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bazar/i18n"
	"bazar/models"
)

const (
	contextKeyClaims   = "auth.claims"
	contextKeyLanguage = "request.language"
)

// languageMiddleware 解析請求語言並放進 context
// 優先序: lang 查詢參數 > x-app-language 標頭 > Accept-Language，
// 都沒有命中時留給 authMiddleware 嘗試使用者儲存的偏好語言
func languageMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if lang, ok := i18n.ResolveExplicit(
			c.Query("lang"),
			c.GetHeader("x-app-language"),
			c.GetHeader("Accept-Language"),
		); ok {
			c.Set(contextKeyLanguage, lang)
		}
		c.Next()
	}
}

func requestLanguage(c *gin.Context) string {
	if lang, ok := c.Get(contextKeyLanguage); ok {
		return lang.(string)
	}
	return i18n.DefaultLanguage
}

// authMiddleware 驗證 Bearer 權杖並把身份資訊放進 context
func (impl *ServerImpl) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			impl.respondUnauthorized(c)
			return
		}
		claims, err := impl.tokens.ParseAndValidate(token)
		if err != nil {
			impl.respondUnauthorized(c)
			return
		}
		c.Set(contextKeyClaims, claims)

		// 請求本身沒帶語言時改用使用者儲存的偏好語言
		if _, ok := c.Get(contextKeyLanguage); !ok {
			var user models.User
			if err := impl.db.WithContext(c.Request.Context()).
				Select("language").First(&user, "id = ?", claims.UserID).Error; err == nil {
				if lang, ok := i18n.ResolveExplicit(user.Language); ok {
					c.Set(contextKeyLanguage, lang)
				}
			}
		}
		c.Next()
	}
}

// adminMiddleware 限制只有管理員可以通過，必須掛在 authMiddleware 之後
func (impl *ServerImpl) adminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := currentClaims(c)
		if claims == nil || !claims.IsAdmin {
			impl.respondForbidden(c)
			return
		}
		c.Next()
	}
}

func currentClaims(c *gin.Context) *Claims {
	value, ok := c.Get(contextKeyClaims)
	if !ok {
		return nil
	}
	claims, ok := value.(*Claims)
	if !ok {
		return nil
	}
	return claims
}

func currentUserID(c *gin.Context) uuid.UUID {
	if claims := currentClaims(c); claims != nil {
		return claims.UserID
	}
	return uuid.Nil
}
