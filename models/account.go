package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account 代表企業帳戶
// 賣家以企業帳戶的名義提交報價
type Account struct {
	gorm.Model

	ID      uuid.UUID `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	Name    string    `gorm:"type:varchar(255);not null"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;<-:create"`
	Credit  int64     `gorm:"type:bigint;not null;default:0"`

	Owner   *User           `gorm:"foreignKey:OwnerID"`
	Members []AccountMember `gorm:"foreignKey:AccountID"`
}

// AccountMember 代表企業帳戶的成員
// 同一個使用者在同一個帳戶中只能有一筆成員紀錄
type AccountMember struct {
	gorm.Model

	ID        uuid.UUID `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	AccountID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_account_member_account_id_user_id,where:deleted_at IS NULL;not null;<-:create"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_account_member_account_id_user_id,where:deleted_at IS NULL;not null;<-:create"`
	Role      string    `gorm:"type:varchar(32);not null;default:'member'"`

	Account *Account `gorm:"foreignKey:AccountID"`
	User    *User    `gorm:"foreignKey:UserID"`
}
