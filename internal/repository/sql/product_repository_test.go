package sql

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/iyhunko/product-catalog/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productColumns = []string{"id", "title", "body_html", "vendor", "product_type", "handle", "status", "created_at", "published_at"}

func TestProductRepository_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("successful insert", func(t *testing.T) {
		product := &model.Product{
			Title:    "Leather Messenger Bag",
			BodyHTML: "<p>Handcrafted full-grain leather bag.</p>",
			Vendor:   "Heritage Leather Co.",
			Status:   model.ProductStatusActive,
			Tags:     []string{"leather", "bags"},
			Variants: []model.Variant{
				{Title: "Brown", Price: 189.99, SKU: "LMB-BRN-001", InventoryQuantity: 12},
			},
			Images: []model.Image{
				{Src: "https://cdn.example.com/bag.jpg", Alt: "Brown leather bag"},
			},
			Options: []model.Option{
				{Name: "Color", Values: []string{"Brown", "Black"}},
			},
		}

		mock.ExpectBegin()
		mock.ExpectPrepare("INSERT INTO products").
			ExpectExec().
			WithArgs(
				sqlmock.AnyArg(), product.Title, product.BodyHTML, product.Vendor, "",
				sqlmock.AnyArg(), product.Status, sqlmock.AnyArg(), sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectPrepare("INSERT INTO product_variants").
			ExpectExec().
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "Brown", 189.99, nil, "LMB-BRN-001", int32(12), int32(0)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectPrepare("INSERT INTO product_images").
			ExpectExec().
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "https://cdn.example.com/bag.jpg", "Brown leather bag", nil, nil, int32(0)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectPrepare("INSERT INTO product_options").
			ExpectExec().
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "Color", "Brown, Black", int32(0)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		prepTags := mock.ExpectPrepare("INSERT INTO product_tags")
		prepTags.ExpectExec().
			WithArgs(sqlmock.AnyArg(), "leather", int32(0)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		prepTags.ExpectExec().
			WithArgs(sqlmock.AnyArg(), "bags", int32(1)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := repo.Insert(ctx, product)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, product.ID)
		assert.False(t, product.CreatedAt.IsZero())
		require.NotNil(t, product.PublishedAt)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing title fails before touching the store", func(t *testing.T) {
		product := &model.Product{
			Title:    "   ",
			Variants: []model.Variant{{Title: "Default", Price: 10}},
		}

		err := repo.Insert(ctx, product)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrTitleRequired)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing variants fails before touching the store", func(t *testing.T) {
		product := &model.Product{Title: "Bare Product"}

		err := repo.Insert(ctx, product)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrVariantRequired)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func expectEmptyChildren(mock sqlmock.Sqlmock, productID uuid.UUID) {
	mock.ExpectPrepare("SELECT (.+) FROM product_variants").
		ExpectQuery().
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "title", "price", "compare_at_price", "sku", "inventory_quantity", "position"}))
	mock.ExpectPrepare("SELECT (.+) FROM product_images").
		ExpectQuery().
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "src", "alt", "width", "height", "position"}))
	mock.ExpectPrepare("SELECT (.+) FROM product_options").
		ExpectQuery().
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "name", "option_values", "position"}))
	mock.ExpectPrepare("SELECT (.+) FROM product_tags").
		ExpectQuery().
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "name", "position"}))
}

func TestProductRepository_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("successful find assembles the document", func(t *testing.T) {
		id := uuid.New()
		variantID := uuid.New()
		now := time.Now()

		mock.ExpectPrepare("SELECT (.+) FROM products WHERE id = \\$1").
			ExpectQuery().
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(productColumns).
				AddRow(id, "Ceramic Coffee Mug", "<p>Hand-thrown mug.</p>", "Artisan Pottery Studio", "Home & Kitchen", "ceramic-coffee-mug", "active", now, now))
		mock.ExpectPrepare("SELECT (.+) FROM product_variants").
			ExpectQuery().
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "title", "price", "compare_at_price", "sku", "inventory_quantity", "position"}).
				AddRow(variantID, id, "Default", 24.99, nil, "CM-MAT-001", int32(42), int32(0)))
		mock.ExpectPrepare("SELECT (.+) FROM product_images").
			ExpectQuery().
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "src", "alt", "width", "height", "position"}))
		mock.ExpectPrepare("SELECT (.+) FROM product_options").
			ExpectQuery().
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "name", "option_values", "position"}).
				AddRow(uuid.New(), id, "Finish", "Matte, Glossy", int32(0)))
		mock.ExpectPrepare("SELECT (.+) FROM product_tags").
			ExpectQuery().
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"product_id", "name", "position"}).
				AddRow(id, "ceramic", int32(0)).
				AddRow(id, "mug", int32(1)))

		product, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, product)

		assert.Equal(t, id, product.ID)
		assert.Equal(t, "Ceramic Coffee Mug", product.Title)
		require.Len(t, product.Variants, 1)
		assert.Equal(t, 24.99, product.Variants[0].Price)
		require.Len(t, product.Options, 1)
		assert.Equal(t, []string{"Matte", "Glossy"}, product.Options[0].Values)
		assert.Equal(t, []string{"ceramic", "mug"}, product.Tags)
		assert.Empty(t, product.Images)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("product not found", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectPrepare("SELECT (.+) FROM products WHERE id = \\$1").
			ExpectQuery().
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		product, err := repo.FindByID(ctx, id)
		require.Error(t, err)
		assert.Nil(t, product)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("list without filters returns newest first", func(t *testing.T) {
		query := repository.NewQuery()
		query.Limit = 10

		now := time.Now()
		id1 := uuid.New()
		id2 := uuid.New()

		mock.ExpectPrepare("SELECT (.+) FROM products WHERE 1=1 ORDER BY created_at DESC, id DESC LIMIT").
			ExpectQuery().
			WithArgs(10).
			WillReturnRows(sqlmock.NewRows(productColumns).
				AddRow(id1, "Product 1", "", "Vendor", "", "product-1", "active", now, now).
				AddRow(id2, "Product 2", "", "Vendor", "", "product-2", "draft", now.Add(-time.Hour), nil))
		expectEmptyChildren(mock, id1)
		expectEmptyChildren(mock, id2)

		products, err := repo.List(ctx, *query)
		require.NoError(t, err)
		require.Len(t, products, 2)

		assert.Equal(t, "Product 1", products[0].Title)
		assert.Nil(t, products[1].PublishedAt)
		assert.Equal(t, []string{}, products[0].Tags)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("search filters by title substring", func(t *testing.T) {
		query := repository.NewQuery()
		query.Search = "mug"
		query.Limit = 10

		now := time.Now()
		id := uuid.New()

		mock.ExpectPrepare("SELECT (.+) FROM products WHERE 1=1 AND title ILIKE").
			ExpectQuery().
			WithArgs("mug", 10).
			WillReturnRows(sqlmock.NewRows(productColumns).
				AddRow(id, "Ceramic Coffee Mug", "", "Vendor", "", "ceramic-coffee-mug", "active", now, now))
		expectEmptyChildren(mock, id)

		products, err := repo.List(ctx, *query)
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "Ceramic Coffee Mug", products[0].Title)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("tag filter matches case-insensitively", func(t *testing.T) {
		query := repository.NewQuery()
		query.Tag = "Leather"
		query.Limit = 10

		now := time.Now()
		id := uuid.New()

		mock.ExpectPrepare("SELECT (.+) FROM products WHERE 1=1 AND EXISTS \\(SELECT 1 FROM product_tags").
			ExpectQuery().
			WithArgs("Leather", 10).
			WillReturnRows(sqlmock.NewRows(productColumns).
				AddRow(id, "Leather Messenger Bag", "", "Vendor", "", "leather-messenger-bag", "active", now, now))
		expectEmptyChildren(mock, id)

		products, err := repo.List(ctx, *query)
		require.NoError(t, err)
		require.Len(t, products, 1)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("search takes precedence over tag filter", func(t *testing.T) {
		query := repository.NewQuery()
		query.Search = "bag"
		query.Tag = "kitchen"
		query.Limit = 10

		mock.ExpectPrepare("SELECT (.+) FROM products WHERE 1=1 AND title ILIKE").
			ExpectQuery().
			WithArgs("bag", 10).
			WillReturnRows(sqlmock.NewRows(productColumns))

		products, err := repo.List(ctx, *query)
		require.NoError(t, err)
		assert.Empty(t, products)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-positive limit lists everything", func(t *testing.T) {
		query := repository.NewQuery()
		query.Limit = 0

		mock.ExpectPrepare("SELECT (.+) FROM products WHERE 1=1 ORDER BY created_at DESC, id DESC$").
			ExpectQuery().
			WillReturnRows(sqlmock.NewRows(productColumns))

		products, err := repo.List(ctx, *query)
		require.NoError(t, err)
		assert.Empty(t, products)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list with pagination cursor", func(t *testing.T) {
		query := repository.NewQuery()
		query.Limit = 10
		query.Paginator = &repository.Paginator{
			LastCreatedAt: time.Now().Add(-time.Hour),
			LastID:        uuid.New(),
		}

		mock.ExpectPrepare("SELECT (.+) FROM products WHERE 1=1 AND \\(created_at, id\\) < ").
			ExpectQuery().
			WithArgs(query.Paginator.LastCreatedAt, query.Paginator.LastID, 10).
			WillReturnRows(sqlmock.NewRows(productColumns))

		products, err := repo.List(ctx, *query)
		require.NoError(t, err)
		assert.Empty(t, products)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_ListTags(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("returns distinct sorted tags", func(t *testing.T) {
		mock.ExpectPrepare("SELECT DISTINCT name FROM product_tags ORDER BY name ASC").
			ExpectQuery().
			WillReturnRows(sqlmock.NewRows([]string{"name"}).
				AddRow("audio").
				AddRow("bags").
				AddRow("leather"))

		tags, err := repo.ListTags(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"audio", "bags", "leather"}, tags)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty store returns empty slice", func(t *testing.T) {
		mock.ExpectPrepare("SELECT DISTINCT name FROM product_tags").
			ExpectQuery().
			WillReturnRows(sqlmock.NewRows([]string{"name"}))

		tags, err := repo.ListTags(ctx)
		require.NoError(t, err)
		assert.NotNil(t, tags)
		assert.Empty(t, tags)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_Count(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	mock.ExpectPrepare("SELECT COUNT\\(\\*\\) FROM products").
		ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("updates scalars and replaces named collections", func(t *testing.T) {
		product := &model.Product{
			ID:       uuid.New(),
			Title:    "Updated Title",
			BodyHTML: "<p>Updated copy.</p>",
			Vendor:   "Vendor",
			Status:   model.ProductStatusActive,
			Tags:     []string{"new-tag"},
			Variants: []model.Variant{
				{Title: "Default", Price: 49.99, SKU: "SKU-1", InventoryQuantity: 5},
			},
		}
		replace := repository.ReplaceSet{Variants: true, Tags: true}

		mock.ExpectBegin()
		mock.ExpectPrepare("UPDATE products").
			ExpectExec().
			WithArgs(
				product.ID, product.Title, product.BodyHTML, product.Vendor, "",
				sqlmock.AnyArg(), product.Status, sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectPrepare("DELETE FROM product_variants WHERE product_id = \\$1").
			ExpectExec().
			WithArgs(product.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectPrepare("INSERT INTO product_variants").
			ExpectExec().
			WithArgs(sqlmock.AnyArg(), product.ID, "Default", 49.99, nil, "SKU-1", int32(5), int32(0)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectPrepare("DELETE FROM product_tags WHERE product_id = \\$1").
			ExpectExec().
			WithArgs(product.ID).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectPrepare("INSERT INTO product_tags").
			ExpectExec().
			WithArgs(product.ID, "new-tag", int32(0)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := repo.Update(ctx, product, replace)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown product rolls back with not found", func(t *testing.T) {
		product := &model.Product{
			ID:       uuid.New(),
			Title:    "Ghost",
			Variants: []model.Variant{{Title: "Default", Price: 1}},
		}

		mock.ExpectBegin()
		mock.ExpectPrepare("UPDATE products").
			ExpectExec().
			WithArgs(
				product.ID, product.Title, "", "", "",
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Update(ctx, product, repository.ReplaceSet{})
		require.Error(t, err)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_DeleteByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("successful delete", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectPrepare("DELETE FROM products WHERE id = \\$1").
			ExpectExec().
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.DeleteByID(ctx, id)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("product not found", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectPrepare("DELETE FROM products WHERE id = \\$1").
			ExpectExec().
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.DeleteByID(ctx, id)
		require.Error(t, err)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
