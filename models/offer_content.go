package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OfferContent 是報價的多語系內容列
// 同一個報價的同一種語言只能有一筆內容
type OfferContent struct {
	gorm.Model

	ID               uuid.UUID `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	OfferID          uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_offer_content_offer_id_language,where:deleted_at IS NULL;not null;<-:create"`
	Language         string    `gorm:"type:varchar(8);uniqueIndex:idx_offer_content_offer_id_language,where:deleted_at IS NULL;not null;<-:create"`
	Description      string    `gorm:"type:text;not null"`
	PackagingDetails string    `gorm:"type:text;not null;default:''"`

	Offer *Offer `gorm:"foreignKey:OfferID"`
}
