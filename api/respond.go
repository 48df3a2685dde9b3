package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bazar/offers"
)

// ErrorResponse 是所有錯誤回應的共同格式
type ErrorResponse struct {
	Message    string   `json:"message"`
	Violations []string `json:"violations,omitempty"`
}

var entityMessageIDs = map[string]string{
	"offer":        "EntityOffer",
	"buy ad":       "EntityBuyAd",
	"account":      "EntityAccount",
	"brand":        "EntityBrand",
	"plan":         "EntityPlan",
	"seller":       "EntitySeller",
	"user":         "EntityUser",
	"conversation": "EntityConversation",
}

// respondError 將服務層的錯誤分類轉換成對應的HTTP狀態碼與本地化訊息
//  - NotFoundError   -> 404
//  - ForbiddenError  -> 403
//  - ConflictError   -> 409
//  - ValidationError -> 422
//  - 其他            -> 500，只記錄日誌不洩漏細節
func (impl *ServerImpl) respondError(c *gin.Context, err error) {
	lang := requestLanguage(c)

	var notFound *offers.NotFoundError
	if errors.As(err, &notFound) {
		entity := notFound.Entity
		if messageID, ok := entityMessageIDs[entity]; ok {
			entity = impl.translator.Localize(lang, messageID, nil)
		}
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: impl.translator.Localize(lang, "ErrorNotFound", map[string]any{"Entity": entity}),
		})
		return
	}
	if offers.IsForbidden(err) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: impl.translator.Localize(lang, "ErrorForbidden", nil),
		})
		return
	}
	if offers.IsConflict(err) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: impl.translator.Localize(lang, "ErrorConflict", nil),
		})
		return
	}
	var validation *offers.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message:    impl.translator.Localize(lang, "ErrorValidation", map[string]any{"Violations": strings.Join(validation.Violations, "; ")}),
			Violations: validation.Violations,
		})
		return
	}

	slog.Error("Unhandled error", slog.String("path", c.FullPath()), slog.Any("error", err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Message: impl.translator.Localize(lang, "ErrorInternal", nil),
	})
}

func (impl *ServerImpl) respondUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Message: impl.translator.Localize(requestLanguage(c), "ErrorUnauthorized", nil),
	})
}

func (impl *ServerImpl) respondForbidden(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
		Message: impl.translator.Localize(requestLanguage(c), "ErrorForbidden", nil),
	})
}
