package sql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/iyhunko/product-catalog/internal/repository"
)

// SeedCatalog inserts the sample products into an empty store. A store that
// already holds products is left untouched, so repeated startups are safe.
// Products are inserted oldest first; listings return newest first.
func SeedCatalog(ctx context.Context, repo repository.ProductRepository) error {
	count, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to check product count: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, product := range sampleProducts() {
		if err := repo.Insert(ctx, product); err != nil {
			return fmt.Errorf("failed to seed product %q: %w", product.Title, err)
		}
	}

	slog.Info("seeded sample catalog")
	return nil
}

func sampleProducts() []*model.Product {
	float64Ptr := func(v float64) *float64 { return &v }
	int32Ptr := func(v int32) *int32 { return &v }

	return []*model.Product{
		{
			Title:       "Wireless Headphones",
			BodyHTML:    "<p>Over-ear wireless headphones with active noise cancellation and 30-hour battery life. Foldable design with a hard travel case included.</p>",
			Vendor:      "SoundWave Audio",
			ProductType: "Electronics",
			Handle:      "wireless-headphones",
			Status:      model.ProductStatusDraft,
			Tags:        []string{"audio", "wireless", "headphones"},
			Variants: []model.Variant{
				{
					Title:             "Default",
					Price:             199.99,
					SKU:               "WH-NC-001",
					InventoryQuantity: 0,
				},
			},
			Images: []model.Image{
				{
					Src:    "https://cdn.example.com/products/wireless-headphones.jpg",
					Alt:    "Black over-ear wireless headphones",
					Width:  int32Ptr(1200),
					Height: int32Ptr(1200),
				},
			},
			Options: []model.Option{},
		},
		{
			Title:       "Ceramic Coffee Mug",
			BodyHTML:    "<p>Hand-thrown ceramic mug with a matte glaze finish. Holds 12oz and is dishwasher and microwave safe. Each piece is unique with subtle variations.</p>",
			Vendor:      "Artisan Pottery Studio",
			ProductType: "Home & Kitchen",
			Handle:      "ceramic-coffee-mug",
			Status:      model.ProductStatusActive,
			Tags:        []string{"ceramic", "mug", "kitchen"},
			Variants: []model.Variant{
				{
					Title:             "Default",
					Price:             24.99,
					SKU:               "CM-MAT-001",
					InventoryQuantity: 42,
				},
			},
			Images: []model.Image{
				{
					Src:    "https://cdn.example.com/products/ceramic-mug.jpg",
					Alt:    "Matte glazed ceramic coffee mug",
					Width:  int32Ptr(1000),
					Height: int32Ptr(1000),
				},
			},
			Options: []model.Option{},
		},
		{
			Title:       "Leather Messenger Bag",
			BodyHTML:    "<p>Handcrafted full-grain leather messenger bag with brass hardware. Fits a 15-inch laptop with room to spare for documents and daily carry.</p>",
			Vendor:      "Heritage Leather Co.",
			ProductType: "Bags",
			Handle:      "leather-messenger-bag",
			Status:      model.ProductStatusActive,
			Tags:        []string{"leather", "bags", "handmade"},
			Variants: []model.Variant{
				{
					Title:             "Brown",
					Price:             189.99,
					CompareAtPrice:    float64Ptr(229.99),
					SKU:               "LMB-BRN-001",
					InventoryQuantity: 12,
				},
				{
					Title:             "Black",
					Price:             189.99,
					CompareAtPrice:    float64Ptr(229.99),
					SKU:               "LMB-BLK-001",
					InventoryQuantity: 8,
				},
			},
			Images: []model.Image{
				{
					Src:    "https://cdn.example.com/products/leather-messenger-brown.jpg",
					Alt:    "Brown leather messenger bag",
					Width:  int32Ptr(1600),
					Height: int32Ptr(1200),
				},
				{
					Src:    "https://cdn.example.com/products/leather-messenger-black.jpg",
					Alt:    "Black leather messenger bag",
					Width:  int32Ptr(1600),
					Height: int32Ptr(1200),
				},
			},
			Options: []model.Option{
				{
					Name:   "Color",
					Values: []string{"Brown", "Black"},
				},
			},
		},
	}
}
