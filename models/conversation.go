package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation 代表買賣雙方的對話
// 只會在報價被接受時建立
type Conversation struct {
	gorm.Model

	ID            uuid.UUID  `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	OfferID       uuid.UUID  `gorm:"type:uuid;not null;<-:create"`
	BuyerID       uuid.UUID  `gorm:"type:uuid;not null;<-:create"`
	SellerID      uuid.UUID  `gorm:"type:uuid;not null;<-:create"`
	LastMessageAt *time.Time `gorm:"type:timestamp with time zone"`

	Messages []Message `gorm:"foreignKey:ConversationID"`
}

// Message 代表對話中的一則訊息
type Message struct {
	gorm.Model

	ID             uuid.UUID `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index;<-:create"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null;<-:create"`
	Body           string    `gorm:"type:text;not null;<-:create"`
	IsRead         bool      `gorm:"type:boolean;not null;default:false"`
}
