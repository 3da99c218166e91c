package postgres

import (
	"time"

	"github.com/google/uuid"
)

type UserModel struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Username   string `gorm:"uniqueIndex;not null"`
	Email      string `gorm:"uniqueIndex;not null"`
	Password   string `gorm:"not null"`
	IsVerified bool   `gorm:"default:false"`
}

func (UserModel) TableName() string {
	return "users"
}
