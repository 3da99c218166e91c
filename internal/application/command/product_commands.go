package command

import (
	"github.com/google/uuid"
	"storefront-api/internal/application/common"
)

// ImageUpload is an image received with a multipart form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type CreateProductCommand struct {
	Name        string       `json:"productName" validate:"required,max=200"`
	Description string       `json:"description" validate:"max=2000"`
	Price       float64      `json:"productPrice" validate:"gte=0"`
	Image       *ImageUpload `json:"-"`
}

type UpdateProductCommand struct {
	Id          uuid.UUID    `json:"-"`
	Name        *string      `json:"productName" validate:"omitempty,min=1,max=200"`
	Description *string      `json:"description" validate:"omitempty,max=2000"`
	Price       *float64     `json:"productPrice" validate:"omitempty,gte=0"`
	Image       *ImageUpload `json:"-"`
}

type ProductCommandResult struct {
	Result *common.ProductResult `json:"result"`
}
