package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plan 代表可購買的點數方案
type Plan struct {
	gorm.Model

	ID           uuid.UUID `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	Code         string    `gorm:"type:varchar(64);uniqueIndex:idx_plan_code,where:deleted_at IS NULL;not null;<-:create"`
	CreditAmount int64     `gorm:"type:bigint;not null"`
	Price        uint64    `gorm:"type:bigint;not null"`
	DurationDays int       `gorm:"type:integer;not null;default:30"`
}

// CreditTransaction 代表帳戶的點數異動紀錄
// Amount 為正代表入帳，為負代表扣款
type CreditTransaction struct {
	gorm.Model

	ID        uuid.UUID `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;index;<-:create"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;<-:create"`
	Activity  string    `gorm:"type:varchar(64);not null;<-:create"`
	Amount    int64     `gorm:"type:bigint;not null;<-:create"`
	Balance   int64     `gorm:"type:bigint;not null;<-:create"`
	Reference string    `gorm:"type:text;not null;default:'';<-:create"`

	Account *Account `gorm:"foreignKey:AccountID"`
}
