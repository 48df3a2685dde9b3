package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attachment 代表報價的附件
// 例如認證文件或商品照片，檔案本體存放在 S3
type Attachment struct {
	gorm.Model

	ID          uuid.UUID `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	OfferID     uuid.UUID `gorm:"type:uuid;not null;index;<-:create"`
	UploaderID  uuid.UUID `gorm:"type:uuid;not null;<-:create"`
	Url         string    `gorm:"type:text;not null;<-:create"`
	ContentType string    `gorm:"type:varchar(128);not null;<-:create"`

	Offer    *Offer `gorm:"foreignKey:OfferID"`
	Uploader *User  `gorm:"foreignKey:UploaderID"`
}
