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

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) repositories.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entities.ValidatedUser) (*entities.User, error) {
	userModel := r.mapToModel(user.GetUser())

	if err := conn(ctx, r.db).Create(&userModel).Error; err != nil {
		return nil, translateError(err)
	}

	// Read back the created user to ensure data integrity
	return r.FindById(ctx, userModel.Id)
}

func (r *UserRepository) FindById(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*entities.User, error) {
	var userModels []UserModel
	if err := conn(ctx, r.db).Order("created_at").Find(&userModels).Error; err != nil {
		return nil, translateError(err)
	}

	users := make([]*entities.User, 0, len(userModels))
	for i := range userModels {
		users = append(users, r.mapToEntity(&userModels[i]))
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, user *entities.ValidatedUser) (*entities.User, error) {
	userModel := r.mapToModel(user.GetUser())

	result := conn(ctx, r.db).Model(&UserModel{}).Where("id = ?", userModel.Id).Updates(map[string]interface{}{
		"username":    userModel.Username,
		"email":       userModel.Email,
		"password":    userModel.Password,
		"is_verified": userModel.IsVerified,
		"updated_at":  userModel.UpdatedAt,
	})
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, userModel.Id)
	}

	return r.FindById(ctx, userModel.Id)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg interface{}) (*entities.User, error) {
	var userModel UserModel
	if err := conn(ctx, r.db).Where(query, arg).First(&userModel).Error; err != nil {
		return nil, translateError(err)
	}

	return r.mapToEntity(&userModel), nil
}

func (r *UserRepository) mapToModel(user *entities.User) UserModel {
	return UserModel{
		Id:         user.Id,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
		Username:   user.Username,
		Email:      user.Email,
		Password:   user.Password,
		IsVerified: user.IsVerified,
	}
}

func (r *UserRepository) mapToEntity(userModel *UserModel) *entities.User {
	return &entities.User{
		Id:         userModel.Id,
		CreatedAt:  userModel.CreatedAt,
		UpdatedAt:  userModel.UpdatedAt,
		Username:   userModel.Username,
		Email:      userModel.Email,
		Password:   userModel.Password,
		IsVerified: userModel.IsVerified,
	}
}
