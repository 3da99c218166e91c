package common

import (
	"time"

	"github.com/google/uuid"
)

type ProductResult struct {
	Id          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Name        string    `json:"productName"`
	Description string    `json:"description"`
	Price       float64   `json:"productPrice"`
	ImageURL    string    `json:"imageUrl,omitempty"`
}
