package interfaces

import (
	"context"

	"github.com/google/uuid"
	"storefront-api/internal/application/command"
	"storefront-api/internal/application/query"
)

type ProductService interface {
	CreateProduct(ctx context.Context, createCommand *command.CreateProductCommand) (*command.ProductCommandResult, error)
	UpdateProduct(ctx context.Context, updateCommand *command.UpdateProductCommand) (*command.ProductCommandResult, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) (*command.MessageResult, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*query.ProductQueryResult, error)
	GetProducts(ctx context.Context) (*query.ProductQueryListResult, error)
}
