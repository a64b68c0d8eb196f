package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlaceholderImage is used for cart snapshots of products with no image.
const PlaceholderImage = "https://via.placeholder.com/150"

type Product struct {
	ID          string          `json:"id"`
	Category    string          `json:"category"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Size        string          `json:"size,omitempty"`
	Material    string          `json:"material,omitempty"`
	Image       string          `json:"image,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       *int            `json:"stock,omitempty"`
	Rating      *float64        `json:"rating,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Features    []string        `json:"features,omitempty"`
	DateAdded   string          `json:"dateAdded,omitempty"`
	IsDeleted   bool            `json:"isDeleted,omitempty"`
}

// ProductDraft is the partial body sent on create and update. Nil fields are
// left out so the backend keeps its current value.
type ProductDraft struct {
	ID          *string          `json:"id,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Size        *string          `json:"size,omitempty"`
	Material    *string          `json:"material,omitempty"`
	Image       *string          `json:"image,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	Rating      *float64         `json:"rating,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	Features    []string         `json:"features,omitempty"`
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// AddedAt parses DateAdded. Missing or unparseable dates yield the Unix epoch.
func (p Product) AddedAt() time.Time {
	if p.DateAdded != "" {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, p.DateAdded); err == nil {
				return t
			}
		}
	}
	return time.Unix(0, 0).UTC()
}

// RatingOrZero returns Rating, or 0 when unset.
func (p Product) RatingOrZero() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// ImageOrPlaceholder returns Image, or PlaceholderImage when empty.
func (p Product) ImageOrPlaceholder() string {
	if p.Image == "" {
		return PlaceholderImage
	}
	return p.Image
}
