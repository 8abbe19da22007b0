package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/flicky/go-ecommerce-cli/internal/cache"
	"github.com/flicky/go-ecommerce-cli/internal/dto"
	"github.com/flicky/go-ecommerce-cli/internal/model"
	"github.com/flicky/go-ecommerce-cli/internal/repository"
)

const (
	minProductNameLen = 3
	minCategoryLen    = 2
	priceScale        = 2
)

type ProductService struct {
	store repository.Store
	cache *cache.ProductCache
	log   *zap.Logger
}

func NewProductService(store repository.Store, productCache *cache.ProductCache, log *zap.Logger) *ProductService {
	return &ProductService{store: store, cache: productCache, log: log}
}

func (s *ProductService) Create(ctx context.Context, ownerID int64, req dto.CreateProductRequest) (string, error) {
	name := strings.TrimSpace(req.Name)
	category := strings.TrimSpace(req.Category)
	if err := validateName(name); err != nil {
		return "", err
	}
	if err := validateCategory(category); err != nil {
		return "", err
	}
	if err := validatePrice(req.Price); err != nil {
		return "", err
	}
	if err := validateStock(req.Stock); err != nil {
		return "", err
	}

	owner, err := s.store.Users().GetByID(ctx, ownerID)
	if err != nil {
		return "", storageError(s.log, "create product", err)
	}
	if owner == nil {
		return "", notFoundf("user not found")
	}

	product := &model.Product{
		UserID:      ownerID,
		Name:        name,
		Category:    category,
		Price:       req.Price,
		Stock:       req.Stock,
		Description: strings.TrimSpace(req.Description),
		IsActive:    true,
	}
	if err := s.store.Products().Create(ctx, product); err != nil {
		return "", storageError(s.log, "create product", err, zap.Int64("owner_id", ownerID))
	}
	s.log.Info("product created", zap.Int64("product_id", product.ID), zap.Int64("owner_id", ownerID))
	return fmt.Sprintf("product created with id %d", product.ID), nil
}

func (s *ProductService) ListActive(ctx context.Context) ([]model.Product, error) {
	return s.list(ctx, repository.ProductFilter{})
}

func (s *ProductService) ListByOwner(ctx context.Context, ownerID int64) ([]model.Product, error) {
	return s.list(ctx, repository.ProductFilter{OwnerID: ownerID})
}

// Search matches text case-insensitively against name or description.
func (s *ProductService) Search(ctx context.Context, text string) ([]model.Product, error) {
	return s.list(ctx, repository.ProductFilter{Search: strings.TrimSpace(text)})
}

func (s *ProductService) ListByCategory(ctx context.Context, category string) ([]model.Product, error) {
	return s.list(ctx, repository.ProductFilter{Category: strings.TrimSpace(category)})
}

func (s *ProductService) list(ctx context.Context, f repository.ProductFilter) ([]model.Product, error) {
	products, err := s.store.Products().List(ctx, f)
	if err != nil {
		return nil, storageError(s.log, "list products", err)
	}
	return products, nil
}

// Get returns an active product, reading through the cache.
func (s *ProductService) Get(ctx context.Context, id int64) (*model.Product, error) {
	if p, ok := s.cache.Get(ctx, id); ok && p.IsActive {
		return p, nil
	}
	p, err := s.store.Products().GetByID(ctx, id)
	if err != nil {
		return nil, storageError(s.log, "get product", err, zap.Int64("product_id", id))
	}
	if p == nil || !p.IsActive {
		return nil, notFoundf("product %d not found", id)
	}
	s.cache.Set(ctx, p)
	return p, nil
}

// Update applies changes after validating every given field. Nothing is
// written when any field is invalid.
func (s *ProductService) Update(ctx context.Context, productID, requesterID int64, changes dto.ProductChanges) (string, error) {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		product, err := s.owned(ctx, tx, productID, requesterID)
		if err != nil {
			return err
		}
		if changes.Empty() {
			return nil
		}

		updated := *product
		if changes.Name != nil {
			name := strings.TrimSpace(*changes.Name)
			if err := validateName(name); err != nil {
				return err
			}
			updated.Name = name
		}
		if changes.Category != nil {
			category := strings.TrimSpace(*changes.Category)
			if err := validateCategory(category); err != nil {
				return err
			}
			updated.Category = category
		}
		if changes.Price != nil {
			if err := validatePrice(*changes.Price); err != nil {
				return err
			}
			updated.Price = *changes.Price
		}
		if changes.Stock != nil {
			if err := validateStock(*changes.Stock); err != nil {
				return err
			}
			updated.Stock = *changes.Stock
		}
		if changes.Description != nil {
			updated.Description = strings.TrimSpace(*changes.Description)
		}
		return tx.Products().Update(ctx, &updated)
	})
	if err != nil {
		return "", storageError(s.log, "update product", err, zap.Int64("product_id", productID))
	}
	if changes.Empty() {
		return "nothing to update", nil
	}

	s.cache.Invalidate(ctx, productID)
	s.log.Info("product updated", zap.Int64("product_id", productID))
	return "product updated", nil
}

// Delete hides the product. The row stays because order items reference it.
func (s *ProductService) Delete(ctx context.Context, productID, requesterID int64) (string, error) {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := s.owned(ctx, tx, productID, requesterID); err != nil {
			return err
		}
		return tx.Products().SetActive(ctx, productID, false)
	})
	if err != nil {
		return "", storageError(s.log, "delete product", err, zap.Int64("product_id", productID))
	}

	s.cache.Invalidate(ctx, productID)
	s.log.Info("product deleted", zap.Int64("product_id", productID))
	return "product deleted", nil
}

// AdjustStock adds delta, which may be negative, to the product's stock.
func (s *ProductService) AdjustStock(ctx context.Context, productID int64, delta int) (string, error) {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		product, err := tx.Products().GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil || !product.IsActive {
			return notFoundf("product %d not found", productID)
		}
		return s.adjust(ctx, tx, product, delta)
	})
	if err != nil {
		return "", storageError(s.log, "adjust stock", err, zap.Int64("product_id", productID))
	}
	s.cache.Invalidate(ctx, productID)
	return "stock updated", nil
}

// Restock is AdjustStock restricted to the product's owner.
func (s *ProductService) Restock(ctx context.Context, productID, requesterID int64, delta int) (string, error) {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		product, err := s.owned(ctx, tx, productID, requesterID)
		if err != nil {
			return err
		}
		return s.adjust(ctx, tx, product, delta)
	})
	if err != nil {
		return "", storageError(s.log, "restock", err, zap.Int64("product_id", productID))
	}
	s.cache.Invalidate(ctx, productID)
	return "stock updated", nil
}

func (s *ProductService) adjust(ctx context.Context, tx repository.Store, product *model.Product, delta int) error {
	if product.Stock+delta < 0 {
		return conflictf("not enough stock for %q: have %d", product.Name, product.Stock)
	}
	ok, err := tx.Products().AdjustStock(ctx, product.ID, delta)
	if err != nil {
		return err
	}
	if !ok {
		return conflictf("not enough stock for %q", product.Name)
	}
	return nil
}

// owned locks an active product and checks that requesterID owns it.
func (s *ProductService) owned(ctx context.Context, tx repository.Store, productID, requesterID int64) (*model.Product, error) {
	product, err := tx.Products().GetForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, notFoundf("product %d not found", productID)
	}
	if product.UserID != requesterID {
		return nil, forbiddenf("you do not own product %d", productID)
	}
	return product, nil
}

func validateName(name string) error {
	if utf8.RuneCountInString(name) < minProductNameLen {
		return validationf("name must be at least %d characters", minProductNameLen)
	}
	return nil
}

func validateCategory(category string) error {
	if utf8.RuneCountInString(category) < minCategoryLen {
		return validationf("category must be at least %d characters", minCategoryLen)
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return validationf("price must be greater than zero")
	}
	if !price.Equal(price.Round(priceScale)) {
		return validationf("price can have at most %d decimal places", priceScale)
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return validationf("stock cannot be negative")
	}
	return nil
}
