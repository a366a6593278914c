package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/iyhunko/product-catalog/internal/repository"
)

// ProductRepository stores product documents across the products table and
// its child tables (variants, images, options, tags).
type ProductRepository struct {
	db  *sql.DB
	txn *sql.Tx
}

// NewProductRepository creates a new ProductRepository instance.
func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// getExecutor returns the active executor (transaction if exists, otherwise db)
func (r *ProductRepository) getExecutor() dbExecutor {
	if r.txn != nil {
		return r.txn
	}
	return r.db
}

// withinTransaction runs fn against a transaction-scoped copy of the
// repository. When the repository is already bound to a transaction, fn
// joins it instead of opening a nested one.
func (r *ProductRepository) withinTransaction(ctx context.Context, fn func(txRepo *ProductRepository) error) error {
	if r.txn != nil {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txRepo := &ProductRepository{
		db:  r.db,
		txn: tx,
	}

	if err := fn(txRepo); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Insert writes a new product document, parent row and all child rows, as a
// single atomic unit.
func (r *ProductRepository) Insert(ctx context.Context, product *model.Product) error {
	// Only initialize metadata if not already set
	if product.ID == uuid.Nil {
		product.InitMeta()
	}

	rec, err := model.ToWriteSet(product)
	if err != nil {
		return err
	}

	return r.withinTransaction(ctx, func(txRepo *ProductRepository) error {
		if err := txRepo.insertProductRow(ctx, rec.Product); err != nil {
			return err
		}
		return txRepo.insertChildren(ctx, rec)
	})
}

func (r *ProductRepository) insertProductRow(ctx context.Context, row model.ProductRow) error {
	query := `INSERT INTO products (id, title, body_html, vendor, product_type, handle, status, created_at, published_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		row.ID, row.Title, row.BodyHTML, row.Vendor, row.ProductType,
		row.Handle, row.Status, row.CreatedAt, row.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	return nil
}

func (r *ProductRepository) insertChildren(ctx context.Context, rec *model.ProductRecord) error {
	if err := r.insertVariants(ctx, rec.Variants); err != nil {
		return err
	}
	if err := r.insertImages(ctx, rec.Images); err != nil {
		return err
	}
	if err := r.insertOptions(ctx, rec.Options); err != nil {
		return err
	}
	return r.insertTags(ctx, rec.Tags)
}

func (r *ProductRepository) insertVariants(ctx context.Context, variants []model.VariantRow) error {
	if len(variants) == 0 {
		return nil
	}

	query := `INSERT INTO product_variants (id, product_id, title, price, compare_at_price, sku, inventory_quantity, position)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, v := range variants {
		_, err = stmt.ExecContext(ctx,
			v.ID, v.ProductID, v.Title, v.Price, v.CompareAtPrice,
			v.SKU, v.InventoryQuantity, v.Position,
		)
		if err != nil {
			return fmt.Errorf("failed to insert variant: %w", err)
		}
	}

	return nil
}

func (r *ProductRepository) insertImages(ctx context.Context, images []model.ImageRow) error {
	if len(images) == 0 {
		return nil
	}

	query := `INSERT INTO product_images (id, product_id, src, alt, width, height, position)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, img := range images {
		_, err = stmt.ExecContext(ctx, img.ID, img.ProductID, img.Src, img.Alt, img.Width, img.Height, img.Position)
		if err != nil {
			return fmt.Errorf("failed to insert image: %w", err)
		}
	}

	return nil
}

func (r *ProductRepository) insertOptions(ctx context.Context, options []model.OptionRow) error {
	if len(options) == 0 {
		return nil
	}

	query := `INSERT INTO product_options (id, product_id, name, option_values, position)
	          VALUES ($1, $2, $3, $4, $5)`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, opt := range options {
		_, err = stmt.ExecContext(ctx, opt.ID, opt.ProductID, opt.Name, opt.Values, opt.Position)
		if err != nil {
			return fmt.Errorf("failed to insert option: %w", err)
		}
	}

	return nil
}

func (r *ProductRepository) insertTags(ctx context.Context, tags []model.TagRow) error {
	if len(tags) == 0 {
		return nil
	}

	query := `INSERT INTO product_tags (product_id, name, position)
	          VALUES ($1, $2, $3)`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, tag := range tags {
		_, err = stmt.ExecContext(ctx, tag.ProductID, tag.Name, tag.Position)
		if err != nil {
			return fmt.Errorf("failed to insert tag: %w", err)
		}
	}

	return nil
}

// FindByID retrieves a single product document by ID.
func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `SELECT id, title, body_html, vendor, product_type, handle, status, created_at, published_at
	          FROM products WHERE id = $1`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	var row model.ProductRow
	var publishedAt sql.NullTime
	err = stmt.QueryRowContext(ctx, id).Scan(
		&row.ID, &row.Title, &row.BodyHTML, &row.Vendor, &row.ProductType,
		&row.Handle, &row.Status, &row.CreatedAt, &publishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	if publishedAt.Valid {
		row.PublishedAt = &publishedAt.Time
	}

	rec := &model.ProductRecord{Product: row}
	if err := r.loadChildren(ctx, rec); err != nil {
		return nil, err
	}

	return model.ToDocument(*rec), nil
}

// List retrieves product documents matching the query, newest first. A title
// search takes precedence over a tag filter when both are set.
func (r *ProductRepository) List(ctx context.Context, query repository.Query) ([]*model.Product, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, title, body_html, vendor, product_type, handle, status, created_at, published_at FROM products WHERE 1=1`)

	var args []interface{}
	argIndex := 1

	switch {
	case query.Search != "":
		queryBuilder.WriteString(fmt.Sprintf(" AND title ILIKE '%%' || $%d || '%%'", argIndex))
		args = append(args, query.Search)
		argIndex++
	case query.Tag != "":
		queryBuilder.WriteString(fmt.Sprintf(" AND EXISTS (SELECT 1 FROM product_tags pt WHERE pt.product_id = products.id AND LOWER(pt.name) = LOWER($%d))", argIndex))
		args = append(args, query.Tag)
		argIndex++
	}

	// Apply pagination
	if query.Paginator != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1))
		args = append(args, query.Paginator.LastCreatedAt, query.Paginator.LastID)
		argIndex += 2
	}

	// Order by created_at DESC, id DESC for consistent pagination
	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")

	// A non-positive limit returns the full result set.
	if query.Limit > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argIndex))
		args = append(args, query.Limit)
	}

	stmt, err := r.getExecutor().PrepareContext(ctx, queryBuilder.String())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var records []*model.ProductRecord
	for rows.Next() {
		var row model.ProductRow
		var publishedAt sql.NullTime
		err := rows.Scan(
			&row.ID, &row.Title, &row.BodyHTML, &row.Vendor, &row.ProductType,
			&row.Handle, &row.Status, &row.CreatedAt, &publishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if publishedAt.Valid {
			row.PublishedAt = &publishedAt.Time
		}
		records = append(records, &model.ProductRecord{Product: row})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	products := make([]*model.Product, 0, len(records))
	for _, rec := range records {
		if err := r.loadChildren(ctx, rec); err != nil {
			return nil, err
		}
		products = append(products, model.ToDocument(*rec))
	}

	return products, nil
}

// ListTags returns the distinct tag names across all products, sorted
// alphabetically.
func (r *ProductRepository) ListTags(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT name FROM product_tags ORDER BY name ASC`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, name)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return tags, nil
}

// Count returns the total number of products.
func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM products`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	var count int64
	if err := stmt.QueryRowContext(ctx).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}

	return count, nil
}

// Update rewrites the parent row and replaces the child collections named by
// replace, all within one transaction. Collections not named keep their
// stored rows.
func (r *ProductRepository) Update(ctx context.Context, product *model.Product, replace repository.ReplaceSet) error {
	rec, err := model.ToWriteSet(product)
	if err != nil {
		return err
	}

	return r.withinTransaction(ctx, func(txRepo *ProductRepository) error {
		if err := txRepo.updateProductRow(ctx, rec.Product); err != nil {
			return err
		}
		return txRepo.replaceChildren(ctx, rec, replace)
	})
}

func (r *ProductRepository) updateProductRow(ctx context.Context, row model.ProductRow) error {
	query := `UPDATE products
	          SET title = $2, body_html = $3, vendor = $4, product_type = $5, handle = $6, status = $7, published_at = $8
	          WHERE id = $1`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx,
		row.ID, row.Title, row.BodyHTML, row.Vendor, row.ProductType,
		row.Handle, row.Status, row.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *ProductRepository) replaceChildren(ctx context.Context, rec *model.ProductRecord, replace repository.ReplaceSet) error {
	if replace.Variants {
		if err := r.deleteChildRows(ctx, "product_variants", rec.Product.ID); err != nil {
			return err
		}
		if err := r.insertVariants(ctx, rec.Variants); err != nil {
			return err
		}
	}
	if replace.Images {
		if err := r.deleteChildRows(ctx, "product_images", rec.Product.ID); err != nil {
			return err
		}
		if err := r.insertImages(ctx, rec.Images); err != nil {
			return err
		}
	}
	if replace.Options {
		if err := r.deleteChildRows(ctx, "product_options", rec.Product.ID); err != nil {
			return err
		}
		if err := r.insertOptions(ctx, rec.Options); err != nil {
			return err
		}
	}
	if replace.Tags {
		if err := r.deleteChildRows(ctx, "product_tags", rec.Product.ID); err != nil {
			return err
		}
		if err := r.insertTags(ctx, rec.Tags); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProductRepository) deleteChildRows(ctx context.Context, table string, productID uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE product_id = $1`, table)

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, productID); err != nil {
		return fmt.Errorf("failed to delete %s rows: %w", table, err)
	}

	return nil
}

// DeleteByID removes a product. Child rows go with it through the cascading
// foreign keys.
func (r *ProductRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *ProductRepository) loadChildren(ctx context.Context, rec *model.ProductRecord) error {
	if err := r.loadVariants(ctx, rec); err != nil {
		return err
	}
	if err := r.loadImages(ctx, rec); err != nil {
		return err
	}
	if err := r.loadOptions(ctx, rec); err != nil {
		return err
	}
	return r.loadTags(ctx, rec)
}

func (r *ProductRepository) loadVariants(ctx context.Context, rec *model.ProductRecord) error {
	query := `SELECT id, product_id, title, price, compare_at_price, sku, inventory_quantity, position
	          FROM product_variants WHERE product_id = $1 ORDER BY position ASC`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, rec.Product.ID)
	if err != nil {
		return fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v model.VariantRow
		err := rows.Scan(&v.ID, &v.ProductID, &v.Title, &v.Price, &v.CompareAtPrice, &v.SKU, &v.InventoryQuantity, &v.Position)
		if err != nil {
			return fmt.Errorf("failed to scan variant: %w", err)
		}
		rec.Variants = append(rec.Variants, v)
	}

	return rows.Err()
}

func (r *ProductRepository) loadImages(ctx context.Context, rec *model.ProductRecord) error {
	query := `SELECT id, product_id, src, alt, width, height, position
	          FROM product_images WHERE product_id = $1 ORDER BY position ASC`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, rec.Product.ID)
	if err != nil {
		return fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img model.ImageRow
		err := rows.Scan(&img.ID, &img.ProductID, &img.Src, &img.Alt, &img.Width, &img.Height, &img.Position)
		if err != nil {
			return fmt.Errorf("failed to scan image: %w", err)
		}
		rec.Images = append(rec.Images, img)
	}

	return rows.Err()
}

func (r *ProductRepository) loadOptions(ctx context.Context, rec *model.ProductRecord) error {
	query := `SELECT id, product_id, name, option_values, position
	          FROM product_options WHERE product_id = $1 ORDER BY position ASC`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, rec.Product.ID)
	if err != nil {
		return fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var opt model.OptionRow
		err := rows.Scan(&opt.ID, &opt.ProductID, &opt.Name, &opt.Values, &opt.Position)
		if err != nil {
			return fmt.Errorf("failed to scan option: %w", err)
		}
		rec.Options = append(rec.Options, opt)
	}

	return rows.Err()
}

func (r *ProductRepository) loadTags(ctx context.Context, rec *model.ProductRecord) error {
	query := `SELECT product_id, name, position
	          FROM product_tags WHERE product_id = $1 ORDER BY position ASC`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, rec.Product.ID)
	if err != nil {
		return fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tag model.TagRow
		if err := rows.Scan(&tag.ProductID, &tag.Name, &tag.Position); err != nil {
			return fmt.Errorf("failed to scan tag: %w", err)
		}
		rec.Tags = append(rec.Tags, tag)
	}

	return rows.Err()
}
