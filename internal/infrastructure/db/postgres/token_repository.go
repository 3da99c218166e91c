package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"storefront-api/internal/domain"
	"storefront-api/internal/domain/entities"
	"storefront-api/internal/domain/repositories"
)

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) repositories.TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(ctx context.Context, token *entities.Token) error {
	tokenModel := TokenModel{
		Id:         token.Id,
		Hash:       token.Hash,
		Purpose:    string(token.Purpose),
		UserId:     token.UserId,
		ExpiresAt:  token.ExpiresAt,
		ConsumedAt: token.ConsumedAt,
		CreatedAt:  token.CreatedAt,
	}
	return translateError(conn(ctx, r.db).Create(&tokenModel).Error)
}

func (r *TokenRepository) Consume(ctx context.Context, hash string, purpose entities.TokenPurpose, now time.Time) (*entities.Token, error) {
	// Single conditional UPDATE: the row lock decides the one winner.
	result := conn(ctx, r.db).Model(&TokenModel{}).
		Where("hash = ? AND purpose = ? AND consumed_at IS NULL AND expires_at > ?", hash, string(purpose), now).
		Update("consumed_at", now)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}

	var tokenModel TokenModel
	err := conn(ctx, r.db).Where("hash = ? AND purpose = ?", hash, string(purpose)).First(&tokenModel).Error
	if err != nil {
		return nil, translateError(err)
	}
	token := r.mapToEntity(&tokenModel)

	if result.RowsAffected == 1 {
		return token, nil
	}
	if token.IsConsumed() {
		return nil, fmt.Errorf("%w: token already used", domain.ErrNotFound)
	}
	return nil, domain.ErrExpired
}

func (r *TokenRepository) DeleteByUser(ctx context.Context, userID uuid.UUID, purpose entities.TokenPurpose) error {
	err := conn(ctx, r.db).
		Where("user_id = ? AND purpose = ?", userID, string(purpose)).
		Delete(&TokenModel{}).Error
	return translateError(err)
}

func (r *TokenRepository) mapToEntity(tokenModel *TokenModel) *entities.Token {
	return &entities.Token{
		Id:         tokenModel.Id,
		Hash:       tokenModel.Hash,
		Purpose:    entities.TokenPurpose(tokenModel.Purpose),
		UserId:     tokenModel.UserId,
		ExpiresAt:  tokenModel.ExpiresAt,
		ConsumedAt: tokenModel.ConsumedAt,
		CreatedAt:  tokenModel.CreatedAt,
	}
}
