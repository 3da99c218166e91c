package mapper

import (
	"storefront-api/internal/application/common"
	"storefront-api/internal/domain/entities"
)

func NewUserResultFromEntity(user *entities.User) *common.UserResult {
	return &common.UserResult{
		Id:         user.Id,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
		Username:   user.Username,
		Email:      user.Email,
		IsVerified: user.IsVerified,
	}
}

func NewUserResultsFromEntities(users []*entities.User) []*common.UserResult {
	results := make([]*common.UserResult, 0, len(users))
	for _, user := range users {
		results = append(results, NewUserResultFromEntity(user))
	}
	return results
}
