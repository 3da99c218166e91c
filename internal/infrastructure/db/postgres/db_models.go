package postgres

import (
	"time"

	"github.com/google/uuid"
)

type TokenModel struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Hash       string    `gorm:"uniqueIndex;not null"`
	Purpose    string    `gorm:"index:idx_tokens_user_purpose;not null"`
	UserId     uuid.UUID `gorm:"type:uuid;index:idx_tokens_user_purpose;not null"`
	ExpiresAt  time.Time `gorm:"not null"`
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

func (TokenModel) TableName() string {
	return "tokens"
}

type ProductModel struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string  `gorm:"not null"`
	Description string
	Price       float64 `gorm:"not null;default:0"`
	ImageURL    string
	ImageKey    string
}

func (ProductModel) TableName() string {
	return "products"
}
