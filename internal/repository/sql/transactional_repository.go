package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/iyhunko/product-catalog/internal/repository"
)

// TransactionalRepository commits a product write and its outbox event in a
// single transaction.
type TransactionalRepository struct {
	db *sql.DB
}

// NewTransactionalRepository creates a new TransactionalRepository
func NewTransactionalRepository(db *sql.DB) *TransactionalRepository {
	return &TransactionalRepository{db: db}
}

func (tr *TransactionalRepository) withTxRepos(ctx context.Context, fn func(productRepo *ProductRepository, eventRepo *EventRepository) error) error {
	tx, err := tr.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	productRepo := &ProductRepository{
		db:  tr.db,
		txn: tx,
	}
	eventRepo := &EventRepository{
		db:  tr.db,
		txn: tx,
	}

	if err := fn(productRepo, eventRepo); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CreateProductWithEvent inserts a product and its creation event in one
// transaction.
func (tr *TransactionalRepository) CreateProductWithEvent(ctx context.Context, product *model.Product, event *model.Event) error {
	return tr.withTxRepos(ctx, func(productRepo *ProductRepository, eventRepo *EventRepository) error {
		if err := productRepo.Insert(ctx, product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		if _, err := eventRepo.Create(ctx, event); err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		return nil
	})
}

// UpdateProductWithEvent rewrites a product and records its update event in
// one transaction.
func (tr *TransactionalRepository) UpdateProductWithEvent(ctx context.Context, product *model.Product, replace repository.ReplaceSet, event *model.Event) error {
	return tr.withTxRepos(ctx, func(productRepo *ProductRepository, eventRepo *EventRepository) error {
		if err := productRepo.Update(ctx, product, replace); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return err
			}
			return fmt.Errorf("failed to update product: %w", err)
		}
		if _, err := eventRepo.Create(ctx, event); err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		return nil
	})
}

// DeleteProductWithEvent deletes a product and records its deletion event in
// one transaction.
func (tr *TransactionalRepository) DeleteProductWithEvent(ctx context.Context, id uuid.UUID, event *model.Event) error {
	return tr.withTxRepos(ctx, func(productRepo *ProductRepository, eventRepo *EventRepository) error {
		if err := productRepo.DeleteByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return err
			}
			return fmt.Errorf("failed to delete product: %w", err)
		}
		if _, err := eventRepo.Create(ctx, event); err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		return nil
	})
}
