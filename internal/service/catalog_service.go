package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/iyhunko/product-catalog/internal/metrics"
	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/iyhunko/product-catalog/internal/repository"
	"github.com/iyhunko/product-catalog/internal/sqs"
	"github.com/iyhunko/product-catalog/internal/validation"
)

// ErrInvalidStatus is returned when an update names a status outside the
// known set.
var ErrInvalidStatus = errors.New("invalid product status")

// CatalogService exposes the product catalog operations. Mutations go through
// the transactional repository so each write commits together with its outbox
// event.
type CatalogService struct {
	repo   repository.ProductRepository
	txRepo repository.TxRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo repository.ProductRepository, txRepo repository.TxRepository) *CatalogService {
	return &CatalogService{
		repo:   repo,
		txRepo: txRepo,
	}
}

// ListProducts returns products matching the query, newest first. When both a
// search term and a tag filter are set, the search term wins.
func (cs *CatalogService) ListProducts(ctx context.Context, query repository.Query) ([]*model.Product, error) {
	if query.Search != "" {
		query.Tag = ""
	}
	return cs.repo.List(ctx, query)
}

// GetProduct returns a single product document by ID.
func (cs *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return cs.repo.FindByID(ctx, id)
}

// ListTags returns the distinct tag names in use, sorted alphabetically.
func (cs *CatalogService) ListTags(ctx context.Context) ([]string, error) {
	return cs.repo.ListTags(ctx)
}

// CreateProduct validates the submitted form, assembles the product document
// and commits it together with its creation event.
func (cs *CatalogService) CreateProduct(ctx context.Context, form validation.ProductForm) (*model.Product, error) {
	product, verrs := validation.ParseProductForm(form)
	if verrs != nil {
		return nil, verrs
	}

	product.InitMeta()

	event, err := newCatalogEvent(model.EventTypeProductCreated, product)
	if err != nil {
		return nil, err
	}

	if err := cs.txRepo.CreateProductWithEvent(ctx, product, event); err != nil {
		return nil, err
	}

	metrics.ProductsCreated.Inc()
	return product, nil
}

// UpdateProductInput carries the fields of a partial product update. Nil
// scalar pointers and nil collection slices keep the stored values; empty
// non-nil slices clear them.
type UpdateProductInput struct {
	Title       *string
	BodyHTML    *string
	Vendor      *string
	ProductType *string
	Handle      *string
	Status      *string
	Tags        []string
	Variants    []model.Variant
	Images      []model.Image
	Options     []model.Option
}

// UpdateProduct merges the input over the stored document and commits the
// result with its update event. A product first moved to active gets its
// publication time stamped; moving away from active never clears it.
func (cs *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*model.Product, error) {
	product, err := cs.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Status != nil {
		status := model.ProductStatus(*input.Status)
		if !model.ValidStatus(status) {
			return nil, ErrInvalidStatus
		}
		product.Status = status
		if status == model.ProductStatusActive {
			product.Publish()
		}
	}
	if input.Title != nil {
		product.Title = *input.Title
	}
	if input.BodyHTML != nil {
		product.BodyHTML = *input.BodyHTML
	}
	if input.Vendor != nil {
		product.Vendor = *input.Vendor
	}
	if input.ProductType != nil {
		product.ProductType = *input.ProductType
	}
	if input.Handle != nil {
		product.Handle = *input.Handle
	}

	replace := repository.ReplaceSet{
		Variants: input.Variants != nil,
		Images:   input.Images != nil,
		Options:  input.Options != nil,
		Tags:     input.Tags != nil,
	}
	if replace.Variants {
		product.Variants = input.Variants
	}
	if replace.Images {
		product.Images = input.Images
	}
	if replace.Options {
		product.Options = input.Options
	}
	if replace.Tags {
		product.Tags = input.Tags
	}

	event, err := newCatalogEvent(model.EventTypeProductUpdated, product)
	if err != nil {
		return nil, err
	}

	if err := cs.txRepo.UpdateProductWithEvent(ctx, product, replace, event); err != nil {
		return nil, err
	}

	metrics.ProductsUpdated.Inc()
	return product, nil
}

// DeleteProduct removes a product and commits its deletion event.
func (cs *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := cs.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	event, err := newCatalogEvent(model.EventTypeProductDeleted, product)
	if err != nil {
		return err
	}

	if err := cs.txRepo.DeleteProductWithEvent(ctx, id, event); err != nil {
		return err
	}

	metrics.ProductsDeleted.Inc()
	return nil
}

func newCatalogEvent(eventType string, product *model.Product) (*model.Event, error) {
	return model.NewEvent(eventType, sqs.CatalogMessage{
		Action:    eventType,
		ProductID: product.ID.String(),
		Title:     product.Title,
		Status:    string(product.Status),
	})
}
