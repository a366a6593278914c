package model

import (
	"time"

	"github.com/google/uuid"
)

// ProductStatus represents the lifecycle state of a product.
type ProductStatus string

const (
	// ProductStatusActive indicates the product is published and visible.
	ProductStatusActive ProductStatus = "active"
	// ProductStatusDraft indicates the product is not yet published.
	ProductStatusDraft ProductStatus = "draft"
	// ProductStatusArchived indicates the product has been retired.
	ProductStatusArchived ProductStatus = "archived"
)

// ValidStatus reports whether s is one of the recognized product statuses.
func ValidStatus(s ProductStatus) bool {
	switch s {
	case ProductStatusActive, ProductStatusDraft, ProductStatusArchived:
		return true
	}
	return false
}

// Product is the nested, client-facing document: a product with its
// variants, images, options and tags inlined.
type Product struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	BodyHTML    string        `json:"body_html,omitempty"`
	Vendor      string        `json:"vendor,omitempty"`
	ProductType string        `json:"product_type,omitempty"`
	Handle      string        `json:"handle,omitempty"`
	Status      ProductStatus `json:"status"`
	Tags        []string      `json:"tags"`
	Variants    []Variant     `json:"variants"`
	Images      []Image       `json:"images"`
	Options     []Option      `json:"options"`
	CreatedAt   time.Time     `json:"created_at"`
	PublishedAt *time.Time    `json:"published_at"`
}

// Variant is a purchasable variation of a product. Every product owns at
// least one variant.
type Variant struct {
	ID                uuid.UUID `json:"id"`
	Title             string    `json:"title,omitempty"`
	Price             float64   `json:"price"`
	CompareAtPrice    *float64  `json:"compare_at_price,omitempty"`
	SKU               string    `json:"sku,omitempty"`
	InventoryQuantity int32     `json:"inventory_quantity"`
}

// Image is a product image.
type Image struct {
	ID     uuid.UUID `json:"id"`
	Src    string    `json:"src"`
	Alt    string    `json:"alt,omitempty"`
	Width  *int32    `json:"width,omitempty"`
	Height *int32    `json:"height,omitempty"`
}

// Option is a named axis of variation (e.g. "Size") with its ordered values.
type Option struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Values []string  `json:"values"`
}

// InitMeta initializes the product metadata: assigns a fresh ID, stamps
// created_at and sets published_at when the product starts out active.
func (p *Product) InitMeta() {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	if p.Status == ProductStatusActive && p.PublishedAt == nil {
		now := p.CreatedAt
		p.PublishedAt = &now
	}
}

// Publish stamps published_at if it has not been set yet. The timestamp is
// written exactly once; later status changes never clear it.
func (p *Product) Publish() {
	if p.PublishedAt == nil {
		now := time.Now()
		p.PublishedAt = &now
	}
}
