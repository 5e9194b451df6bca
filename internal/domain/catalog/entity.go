// internal/domain/catalog/entity.go
package catalog

import (
	"errors"
	"strings"
)

var (
	ErrInvalidImage    = errors.New("catalog: invalid image")
	ErrInvalidCategory = errors.New("catalog: invalid category")
)

// Collection is the document-store collection holding the catalog.
const Collection = "images"

// DefaultPrice is charged (INR) for images that carry no price of their own.
const DefaultPrice = 499.0

type Category string

const (
	CategoryNature       Category = "nature"
	CategoryArchitecture Category = "architecture"
	CategoryPortrait     Category = "portrait"
	CategoryAbstract     Category = "abstract"
)

var categories = []Category{CategoryNature, CategoryArchitecture, CategoryPortrait, CategoryAbstract}

// Categories lists the gallery filters in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range categories {
		if c == known {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

// Image is one catalog photograph.
type Image struct {
	ID          string   `json:"id" firestore:"id" yaml:"id"`
	Name        string   `json:"name" firestore:"name" yaml:"name"`
	Description string   `json:"description" firestore:"description" yaml:"description"`
	URL         string   `json:"url" firestore:"url" yaml:"url"`
	Category    Category `json:"category" firestore:"category" yaml:"category"`
	AIHint      string   `json:"aiHint" firestore:"aiHint" yaml:"aiHint"`
	Price       float64  `json:"price,omitempty" firestore:"price,omitempty" yaml:"price,omitempty"`
}

// EffectivePrice is the price used by the cart.
func (i Image) EffectivePrice() float64 {
	if i.Price > 0 {
		return i.Price
	}
	return DefaultPrice
}

// Normalize trims the free-text fields in place.
func (i *Image) Normalize() {
	i.ID = strings.TrimSpace(i.ID)
	i.Name = strings.TrimSpace(i.Name)
	i.Description = strings.TrimSpace(i.Description)
	i.URL = strings.TrimSpace(i.URL)
	i.AIHint = strings.TrimSpace(i.AIHint)
	i.Category = Category(strings.ToLower(strings.TrimSpace(string(i.Category))))
}

// Validate checks the fields an admin must provide. ID is not required: new
// images get theirs from the store.
func (i Image) Validate() error {
	if i.Name == "" || i.URL == "" || i.Price < 0 {
		return ErrInvalidImage
	}
	if _, err := ParseCategory(string(i.Category)); err != nil {
		return err
	}
	return nil
}
