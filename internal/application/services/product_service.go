package services

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"storefront-api/internal/application/command"
	"storefront-api/internal/application/interfaces"
	"storefront-api/internal/application/mapper"
	"storefront-api/internal/application/query"
	"storefront-api/internal/application/validation"
	"storefront-api/internal/domain"
	"storefront-api/internal/domain/entities"
	"storefront-api/internal/domain/repositories"
)

const (
	SubjectProductCreated = "product.created"
	SubjectProductUpdated = "product.updated"
	SubjectProductDeleted = "product.deleted"
)

const DefaultMaxImageSize = 5 << 20

type ProductEvent struct {
	ProductId uuid.UUID `json:"productId"`
	Name      string    `json:"productName"`
	Price     float64   `json:"productPrice"`
	Timestamp time.Time `json:"timestamp"`
}

type ProductService struct {
	productRepo  repositories.ProductRepository
	images       interfaces.ImageStore
	publisher    interfaces.EventPublisher
	maxImageSize int64
	log          *zap.Logger
}

func NewProductService(
	productRepo repositories.ProductRepository,
	images interfaces.ImageStore,
	publisher interfaces.EventPublisher,
	maxImageSize int64,
	log *zap.Logger,
) interfaces.ProductService {
	if maxImageSize <= 0 {
		maxImageSize = DefaultMaxImageSize
	}
	return &ProductService{
		productRepo:  productRepo,
		images:       images,
		publisher:    publisher,
		maxImageSize: maxImageSize,
		log:          log,
	}
}

func (s *ProductService) CreateProduct(ctx context.Context, createCommand *command.CreateProductCommand) (*command.ProductCommandResult, error) {
	createCommand.Name = strings.TrimSpace(createCommand.Name)
	if err := validation.Struct(createCommand); err != nil {
		return nil, err
	}

	product := entities.NewProduct(createCommand.Name, createCommand.Description, createCommand.Price)
	if err := product.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if createCommand.Image != nil {
		key, url, err := s.storeImage(ctx, product.Id, createCommand.Image)
		if err != nil {
			return nil, err
		}
		product.SetImage(key, url)
	}

	createdProduct, err := s.productRepo.Create(ctx, product)
	if err != nil {
		s.deleteImage(ctx, product.ImageKey)
		return nil, err
	}
	s.publish(ctx, SubjectProductCreated, createdProduct)

	return &command.ProductCommandResult{
		Result: mapper.NewProductResultFromEntity(createdProduct),
	}, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, updateCommand *command.UpdateProductCommand) (*command.ProductCommandResult, error) {
	if err := validation.Struct(updateCommand); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindById(ctx, updateCommand.Id)
	if err != nil {
		return nil, err
	}

	if err := product.Update(updateCommand.Name, updateCommand.Description, updateCommand.Price); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var previousKey string
	if updateCommand.Image != nil {
		key, url, err := s.storeImage(ctx, product.Id, updateCommand.Image)
		if err != nil {
			return nil, err
		}
		previousKey = product.SetImage(key, url)
	}

	updatedProduct, err := s.productRepo.Update(ctx, product)
	if err != nil {
		if updateCommand.Image != nil {
			s.deleteImage(ctx, product.ImageKey)
		}
		return nil, err
	}
	s.deleteImage(ctx, previousKey)
	s.publish(ctx, SubjectProductUpdated, updatedProduct)

	return &command.ProductCommandResult{
		Result: mapper.NewProductResultFromEntity(updatedProduct),
	}, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) (*command.MessageResult, error) {
	product, err := s.productRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.deleteImage(ctx, product.ImageKey)
	s.publish(ctx, SubjectProductDeleted, product)

	return &command.MessageResult{Message: "Product deleted successfully"}, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*query.ProductQueryResult, error) {
	product, err := s.productRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}

	return &query.ProductQueryResult{
		Result: mapper.NewProductResultFromEntity(product),
	}, nil
}

func (s *ProductService) GetProducts(ctx context.Context) (*query.ProductQueryListResult, error) {
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	return &query.ProductQueryListResult{
		Result: mapper.NewProductResultsFromEntities(products),
	}, nil
}

func (s *ProductService) storeImage(ctx context.Context, productID uuid.UUID, image *command.ImageUpload) (string, string, error) {
	if len(image.Data) == 0 {
		return "", "", fmt.Errorf("%w: image is empty", domain.ErrValidation)
	}
	if int64(len(image.Data)) > s.maxImageSize {
		return "", "", fmt.Errorf("%w: image exceeds %d bytes", domain.ErrValidation, s.maxImageSize)
	}

	contentType := image.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(image.Data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", "", fmt.Errorf("%w: unsupported image type %q", domain.ErrValidation, contentType)
	}

	key := fmt.Sprintf("products/%s/%s%s", productID, uuid.NewString(), imageExtension(image.Filename, contentType))
	url, err := s.images.Upload(ctx, key, contentType, image.Data)
	if err != nil {
		return "", "", fmt.Errorf("%w: store image: %v", domain.ErrUnexpected, err)
	}
	return key, url, nil
}

func (s *ProductService) deleteImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		s.log.Warn("failed to delete product image", zap.String("key", key), zap.Error(err))
	}
}

func (s *ProductService) publish(ctx context.Context, subject string, product *entities.Product) {
	event := ProductEvent{
		ProductId: product.Id,
		Name:      product.Name,
		Price:     product.Price,
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		s.log.Warn("failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

func imageExtension(filename, contentType string) string {
	if ext := strings.ToLower(path.Ext(filename)); ext != "" {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
