package model

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Option values are persisted as a single delimited string ("S, M, L") and
// split back into a list when the record crosses the storage boundary.
const optionValuesSeparator = ","

var (
	// ErrTitleRequired is returned when a write set is built for a product
	// without a title.
	ErrTitleRequired = errors.New("product title is required")

	// ErrVariantRequired is returned when a write set is built for a product
	// without any variant.
	ErrVariantRequired = errors.New("product requires at least one variant")
)

// ProductRecord is the relational shape of a product: the product row plus
// its eagerly loaded child rows.
type ProductRecord struct {
	Product  ProductRow
	Variants []VariantRow
	Images   []ImageRow
	Options  []OptionRow
	Tags     []TagRow
}

// ProductRow mirrors a row of the products table.
type ProductRow struct {
	ID          uuid.UUID
	Title       string
	BodyHTML    string
	Vendor      string
	ProductType string
	Handle      string
	Status      string
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// VariantRow mirrors a row of the product_variants table.
type VariantRow struct {
	ID                uuid.UUID
	ProductID         uuid.UUID
	Title             string
	Price             float64
	CompareAtPrice    *float64
	SKU               string
	InventoryQuantity int32
	Position          int32
}

// ImageRow mirrors a row of the product_images table.
type ImageRow struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Src       string
	Alt       string
	Width     *int32
	Height    *int32
	Position  int32
}

// OptionRow mirrors a row of the product_options table. Values holds the
// delimited value string as stored.
type OptionRow struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Name      string
	Values    string
	Position  int32
}

// TagRow mirrors a row of the product_tags table.
type TagRow struct {
	ProductID uuid.UUID
	Name      string
	Position  int32
}

// ToDocument assembles a relational product record into the nested document
// shape. Child collections are ordered by position; option value strings are
// split on the separator and trimmed. Pure transform, no side effects.
func ToDocument(rec ProductRecord) *Product {
	doc := &Product{
		ID:          rec.Product.ID,
		Title:       rec.Product.Title,
		BodyHTML:    rec.Product.BodyHTML,
		Vendor:      rec.Product.Vendor,
		ProductType: rec.Product.ProductType,
		Handle:      rec.Product.Handle,
		Status:      ProductStatus(rec.Product.Status),
		CreatedAt:   rec.Product.CreatedAt,
		PublishedAt: rec.Product.PublishedAt,
		Tags:        make([]string, 0, len(rec.Tags)),
		Variants:    make([]Variant, 0, len(rec.Variants)),
		Images:      make([]Image, 0, len(rec.Images)),
		Options:     make([]Option, 0, len(rec.Options)),
	}

	variants := append([]VariantRow(nil), rec.Variants...)
	sort.SliceStable(variants, func(i, j int) bool { return variants[i].Position < variants[j].Position })
	for _, v := range variants {
		doc.Variants = append(doc.Variants, Variant{
			ID:                v.ID,
			Title:             v.Title,
			Price:             v.Price,
			CompareAtPrice:    v.CompareAtPrice,
			SKU:               v.SKU,
			InventoryQuantity: v.InventoryQuantity,
		})
	}

	images := append([]ImageRow(nil), rec.Images...)
	sort.SliceStable(images, func(i, j int) bool { return images[i].Position < images[j].Position })
	for _, img := range images {
		doc.Images = append(doc.Images, Image{
			ID:     img.ID,
			Src:    img.Src,
			Alt:    img.Alt,
			Width:  img.Width,
			Height: img.Height,
		})
	}

	options := append([]OptionRow(nil), rec.Options...)
	sort.SliceStable(options, func(i, j int) bool { return options[i].Position < options[j].Position })
	for _, opt := range options {
		doc.Options = append(doc.Options, Option{
			ID:     opt.ID,
			Name:   opt.Name,
			Values: SplitOptionValues(opt.Values),
		})
	}

	tags := append([]TagRow(nil), rec.Tags...)
	sort.SliceStable(tags, func(i, j int) bool { return tags[i].Position < tags[j].Position })
	for _, tag := range tags {
		doc.Tags = append(doc.Tags, tag.Name)
	}

	return doc
}

// ToWriteSet decomposes a nested product document into the relational write
// plan: one product row plus child rows for every collection. Child rows get
// positions from slice order and fresh IDs where none are set; option value
// lists are joined into the stored delimited string; tags are deduplicated
// by exact match. Fails when the document misses its required parts.
func ToWriteSet(doc *Product) (*ProductRecord, error) {
	if strings.TrimSpace(doc.Title) == "" {
		return nil, ErrTitleRequired
	}
	if len(doc.Variants) == 0 {
		return nil, ErrVariantRequired
	}

	rec := &ProductRecord{
		Product: ProductRow{
			ID:          doc.ID,
			Title:       doc.Title,
			BodyHTML:    doc.BodyHTML,
			Vendor:      doc.Vendor,
			ProductType: doc.ProductType,
			Handle:      doc.Handle,
			Status:      string(doc.Status),
			CreatedAt:   doc.CreatedAt,
			PublishedAt: doc.PublishedAt,
		},
	}

	for i, v := range doc.Variants {
		id := v.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		rec.Variants = append(rec.Variants, VariantRow{
			ID:                id,
			ProductID:         doc.ID,
			Title:             v.Title,
			Price:             v.Price,
			CompareAtPrice:    v.CompareAtPrice,
			SKU:               v.SKU,
			InventoryQuantity: v.InventoryQuantity,
			Position:          int32(i),
		})
	}

	for i, img := range doc.Images {
		id := img.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		rec.Images = append(rec.Images, ImageRow{
			ID:        id,
			ProductID: doc.ID,
			Src:       img.Src,
			Alt:       img.Alt,
			Width:     img.Width,
			Height:    img.Height,
			Position:  int32(i),
		})
	}

	for i, opt := range doc.Options {
		id := opt.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		rec.Options = append(rec.Options, OptionRow{
			ID:        id,
			ProductID: doc.ID,
			Name:      opt.Name,
			Values:    JoinOptionValues(opt.Values),
			Position:  int32(i),
		})
	}

	seen := make(map[string]struct{}, len(doc.Tags))
	for _, tag := range doc.Tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		rec.Tags = append(rec.Tags, TagRow{ProductID: doc.ID, Name: tag, Position: int32(len(rec.Tags))})
	}

	return rec, nil
}

// SplitOptionValues splits a stored delimited value string into its trimmed
// parts. An empty string yields an empty list.
func SplitOptionValues(stored string) []string {
	if strings.TrimSpace(stored) == "" {
		return []string{}
	}
	parts := strings.Split(stored, optionValuesSeparator)
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

// JoinOptionValues joins option values into the stored delimited form.
func JoinOptionValues(values []string) string {
	trimmed := make([]string, 0, len(values))
	for _, v := range values {
		trimmed = append(trimmed, strings.TrimSpace(v))
	}
	return strings.Join(trimmed, optionValuesSeparator+" ")
}
