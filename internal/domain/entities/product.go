package entities

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

type Product struct {
	Id          uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string
	Description string
	Price       float64
	ImageURL    string
	ImageKey    string
}

func NewProduct(name, description string, price float64) *Product {
	now := time.Now().UTC()
	return &Product{
		Id:          uuid.New(),
		CreatedAt:   now,
		UpdatedAt:   now,
		Name:        name,
		Description: description,
		Price:       price,
	}
}

func (p *Product) Validate() error {
	if p.Name == "" {
		return errors.New("product name must not be empty")
	}
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
		return errors.New("product price must be a finite number")
	}
	if p.Price < 0 {
		return errors.New("product price must not be negative")
	}
	return nil
}

// SetImage records a newly stored image and returns the key of the image it
// replaced, if any.
func (p *Product) SetImage(key, url string) (previousKey string) {
	previousKey = p.ImageKey
	p.ImageKey = key
	p.ImageURL = url
	p.UpdatedAt = time.Now().UTC()
	return previousKey
}

func (p *Product) Update(name, description *string, price *float64) error {
	if name != nil {
		p.Name = *name
	}
	if description != nil {
		p.Description = *description
	}
	if price != nil {
		p.Price = *price
	}
	p.UpdatedAt = time.Now().UTC()
	return p.Validate()
}
