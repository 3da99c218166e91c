package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id         uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Username   string
	Email      string
	Password   string // bcrypt hash, never plaintext once stored
	IsVerified bool
}

// NewUser builds an unverified account around an already hashed credential.
func NewUser(username, email, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		Id:         uuid.New(),
		CreatedAt:  now,
		UpdatedAt:  now,
		Username:   username,
		Email:      email,
		Password:   passwordHash,
		IsVerified: false,
	}
}

func (u *User) validate() error {
	if u.Username == "" {
		return errors.New("username must not be empty")
	}
	if u.Email == "" {
		return errors.New("email must not be empty")
	}
	if u.Password == "" {
		return errors.New("password must not be empty")
	}
	if u.CreatedAt.After(u.UpdatedAt) {
		return errors.New("created_at must be before updated_at")
	}
	return nil
}

func (u *User) MarkAsVerified() {
	u.IsVerified = true
	u.UpdatedAt = time.Now().UTC()
}

func (u *User) SetPasswordHash(hash string) {
	u.Password = hash
	u.UpdatedAt = time.Now().UTC()
}
