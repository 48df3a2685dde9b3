package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	internalS3 "bazar/adapters/s3"
	"bazar/models"
	"bazar/offers"
)

// Upload an attachment to an offer
// (POST /offers/{offerID}/attachments)
func (impl *ServerImpl) UploadOfferAttachment(c *gin.Context) {
	lang := requestLanguage(c)
	offerID, err := uuid.Parse(c.Param("offerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid offer id"})
		return
	}

	// 只有報價的賣家本人可以上傳附件
	offer, err := impl.store.Offer(c.Request.Context(), offerID)
	if err != nil {
		impl.respondError(c, &offers.NotFoundError{Entity: "offer"})
		return
	}
	if offer.SellerID != currentUserID(c) {
		impl.respondForbidden(c)
		return
	}

	// 以附件表為準的每小時上傳上限
	var recent int64
	err = impl.db.WithContext(c.Request.Context()).Model(&models.Attachment{}).
		Where("uploader_id = ? AND created_at > ?", currentUserID(c), time.Now().Add(-time.Hour)).
		Count(&recent).Error
	if err != nil {
		impl.respondError(c, err)
		return
	}
	if recent >= int64(impl.config.S3.MaxAttachmentsPerHour) {
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Message: impl.translator.Localize(lang, "ErrorTooManyUploads", nil),
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "missing file"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		impl.respondError(c, err)
		return
	}
	defer file.Close()

	// 邊讀邊檢查大小上限，超過就直接拒絕不繼續讀
	content, err := io.ReadAll(internalS3.NewSizeCappedReader(file, impl.config.S3.MaxAttachmentBytes))
	if err != nil {
		if errors.As(err, &internalS3.ErrSizeLimitType) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Message: impl.translator.Localize(lang, "ErrorFileTooLarge", map[string]any{
					"Limit": internalS3.FormatBytes(impl.config.S3.MaxAttachmentBytes),
				}),
			})
			return
		}
		impl.respondError(c, err)
		return
	}

	// 用內容推斷的MIME類型做白名單檢查，不信任客戶端宣告的類型
	contentType := http.DetectContentType(content)
	ok, extension := internalS3.CheckSecureFileAndGetExtension(contentType)
	if !ok {
		c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{
			Message: impl.translator.Localize(lang, "ErrorFileType", nil),
		})
		return
	}

	path := fmt.Sprintf("offers/%s/%s.%s", offerID, uuid.NewString(), extension)
	url, err := impl.s3Operator.Upload(c.Request.Context(), path, contentType, content)
	if err != nil {
		impl.respondError(c, err)
		return
	}

	attachment := models.Attachment{
		OfferID:     offerID,
		UploaderID:  currentUserID(c),
		Url:         url,
		ContentType: contentType,
	}
	if err := impl.db.WithContext(c.Request.Context()).Create(&attachment).Error; err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":           attachment.ID,
		"url":          url,
		"content_type": contentType,
	})
}
