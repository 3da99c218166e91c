package entities

import (
	"fmt"

	"storefront-api/internal/domain"
)

// ValidatedUser is a User whose invariants were checked before it reaches a
// store. Repositories only accept this type on writes.
type ValidatedUser struct {
	*User
}

func NewValidatedUser(user *User) (*ValidatedUser, error) {
	if err := user.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	return &ValidatedUser{User: user}, nil
}

func (vu *ValidatedUser) GetUser() *User {
	return vu.User
}
