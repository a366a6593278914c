package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/iyhunko/product-catalog/internal/model"
)

var (
	// ErrNotFound is returned when a product id does not exist in the store.
	ErrNotFound = errors.New("product not found")
)

// ReplaceSet names the child collections an update replaces wholesale.
// A named collection is deleted and recreated from the product document;
// unnamed collections are left untouched.
type ReplaceSet struct {
	Variants bool
	Images   bool
	Options  bool
	Tags     bool
}

// Any reports whether at least one child collection is marked for replacement.
func (r ReplaceSet) Any() bool {
	return r.Variants || r.Images || r.Options || r.Tags
}

// ProductRepository owns durable storage of product documents. A single
// product's create/update/delete is atomic as a unit: either the product row
// and all of its child rows are written, or none are.
type ProductRepository interface {
	// Insert writes a product and all of its child rows in one transaction.
	Insert(ctx context.Context, product *model.Product) error

	// FindByID returns the assembled product document, or ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// List returns products in creation order, newest first, applying the
	// query's search/tag filter and pagination.
	List(ctx context.Context, query Query) ([]*model.Product, error)

	// ListTags returns the distinct tag names across all products,
	// alphabetically sorted.
	ListTags(ctx context.Context) ([]string, error)

	// Count returns the number of stored products.
	Count(ctx context.Context) (int64, error)

	// Update rewrites the product's scalar row and replaces the child
	// collections named in replace, in one transaction. Returns ErrNotFound
	// when the id does not exist.
	Update(ctx context.Context, product *model.Product, replace ReplaceSet) error

	// DeleteByID removes the product; child rows cascade. Returns
	// ErrNotFound when no row was deleted.
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// EventRepository owns the outbox events table.
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	ListPending(ctx context.Context, limit int) ([]*model.Event, error)
	UpdateStatus(ctx context.Context, eventID uuid.UUID, status model.EventStatus) error
}

// TxRepository combines a product mutation with its outbox event in a single
// database transaction, so an event is recorded exactly when the mutation
// it describes is committed.
type TxRepository interface {
	CreateProductWithEvent(ctx context.Context, product *model.Product, event *model.Event) error
	UpdateProductWithEvent(ctx context.Context, product *model.Product, replace ReplaceSet, event *model.Event) error
	DeleteProductWithEvent(ctx context.Context, id uuid.UUID, event *model.Event) error
}
