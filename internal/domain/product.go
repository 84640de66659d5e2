package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Product struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	Slug          string              `json:"slug"`
	Description   string              `json:"description"`
	Price         decimal.Decimal     `json:"price"`
	SKU           string              `json:"sku"`
	Stock         int                 `json:"stock"`
	CategoryID    int64               `json:"categoryId"`
	Category      *CategoryRef        `json:"category,omitempty"`
	Images        []string            `json:"images"`
	IsActive      bool                `json:"isActive"`
	IsFeatured    bool                `json:"isFeatured"`
	Weight        decimal.NullDecimal `json:"weight"`
	Dimensions    *Dimensions         `json:"dimensions,omitempty"`
	AverageRating decimal.Decimal     `json:"averageRating"`
	ReviewCount   int                 `json:"reviewCount"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// ProductRef is the slim product shape embedded in likes and comments.
type ProductRef struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Slug   string          `json:"slug"`
	Price  decimal.Decimal `json:"price"`
	Images []string        `json:"images"`
}

// ProductSnapshot freezes the product fields an order item must keep
// even after the catalog entry changes or disappears.
type ProductSnapshot struct {
	Name   string          `json:"name"`
	SKU    string          `json:"sku,omitempty"`
	Price  decimal.Decimal `json:"price"`
	Images []string        `json:"images"`
}

func (p Product) Snapshot() ProductSnapshot {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return ProductSnapshot{Name: p.Name, SKU: p.SKU, Price: p.Price, Images: images}
}

func (p Product) Ref() ProductRef {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return ProductRef{ID: p.ID, Name: p.Name, Slug: p.Slug, Price: p.Price, Images: images}
}
