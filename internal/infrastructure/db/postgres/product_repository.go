package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"storefront-api/internal/domain"
	"storefront-api/internal/domain/entities"
	"storefront-api/internal/domain/repositories"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) repositories.ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, product *entities.Product) (*entities.Product, error) {
	productModel := r.mapToModel(product)
	if err := conn(ctx, r.db).Create(&productModel).Error; err != nil {
		return nil, translateError(err)
	}
	return r.FindById(ctx, product.Id)
}

func (r *ProductRepository) FindById(ctx context.Context, id uuid.UUID) (*entities.Product, error) {
	var productModel ProductModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&productModel).Error; err != nil {
		return nil, translateError(err)
	}
	return r.mapToEntity(&productModel), nil
}

func (r *ProductRepository) FindAll(ctx context.Context) ([]*entities.Product, error) {
	var productModels []ProductModel
	if err := conn(ctx, r.db).Order("created_at desc").Find(&productModels).Error; err != nil {
		return nil, translateError(err)
	}

	products := make([]*entities.Product, 0, len(productModels))
	for i := range productModels {
		products = append(products, r.mapToEntity(&productModels[i]))
	}
	return products, nil
}

func (r *ProductRepository) Update(ctx context.Context, product *entities.Product) (*entities.Product, error) {
	productModel := r.mapToModel(product)
	result := conn(ctx, r.db).Model(&ProductModel{}).Where("id = ?", product.Id).Updates(map[string]interface{}{
		"name":        productModel.Name,
		"description": productModel.Description,
		"price":       productModel.Price,
		"image_url":   productModel.ImageURL,
		"image_key":   productModel.ImageKey,
		"updated_at":  productModel.UpdatedAt,
	})
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: product %s", domain.ErrNotFound, product.Id)
	}
	return r.FindById(ctx, product.Id)
}

func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&ProductModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
	}
	return nil
}

func (r *ProductRepository) mapToModel(product *entities.Product) ProductModel {
	return ProductModel{
		Id:          product.Id,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		ImageURL:    product.ImageURL,
		ImageKey:    product.ImageKey,
	}
}

func (r *ProductRepository) mapToEntity(productModel *ProductModel) *entities.Product {
	return &entities.Product{
		Id:          productModel.Id,
		CreatedAt:   productModel.CreatedAt,
		UpdatedAt:   productModel.UpdatedAt,
		Name:        productModel.Name,
		Description: productModel.Description,
		Price:       productModel.Price,
		ImageURL:    productModel.ImageURL,
		ImageKey:    productModel.ImageKey,
	}
}
