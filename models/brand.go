package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Brand 代表商品品牌
type Brand struct {
	gorm.Model

	ID      uuid.UUID `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	Slug    string    `gorm:"type:varchar(128);uniqueIndex:idx_brand_slug,where:deleted_at IS NULL;not null;<-:create"`
	LogoURL string    `gorm:"type:text;not null;default:''"`

	Contents []BrandContent `gorm:"foreignKey:BrandID"`
}

// BrandContent 是品牌的多語系內容列
type BrandContent struct {
	gorm.Model

	ID          uuid.UUID `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	BrandID     uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_brand_content_brand_id_language,where:deleted_at IS NULL;not null;<-:create"`
	Language    string    `gorm:"type:varchar(8);uniqueIndex:idx_brand_content_brand_id_language,where:deleted_at IS NULL;not null;<-:create"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text;not null;default:''"`

	Brand *Brand `gorm:"foreignKey:BrandID"`
}
