package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 代表市集中的使用者
// 包含顯示名稱、偏好語言與賣家評價
type User struct {
	gorm.Model

	ID          uuid.UUID `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	Username    string    `gorm:"type:varchar(255);not null;<-:create"`
	DisplayName string    `gorm:"type:varchar(255);not null"`
	Language    string    `gorm:"type:varchar(8);not null;default:'fa'"`
	Rating      float32   `gorm:"type:real;not null;default:0"`
	IsAdmin     bool      `gorm:"type:boolean;not null;default:false"`
}
