package mapper

import (
	"storefront-api/internal/application/common"
	"storefront-api/internal/domain/entities"
)

func NewProductResultFromEntity(product *entities.Product) *common.ProductResult {
	return &common.ProductResult{
		Id:          product.Id,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		ImageURL:    product.ImageURL,
	}
}

func NewProductResultsFromEntities(products []*entities.Product) []*common.ProductResult {
	results := make([]*common.ProductResult, 0, len(products))
	for _, product := range products {
		results = append(results, NewProductResultFromEntity(product))
	}
	return results
}
