// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	perrors "github.com/akrylov/marketplace/internal/product/errors"
	"github.com/akrylov/marketplace/internal/product/store"
	"github.com/akrylov/marketplace/pkg/messaging"
	"github.com/akrylov/marketplace/pkg/messaging/events"
	"github.com/google/uuid"
)

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*ProductDto, error)

	// FindAll returns all available products.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]ProductDto, error)

	// Create adds a new product owned by the given seller.
	// Returns ErrInvalidProduct if the store rejects the record.
	Create(ctx context.Context, sellerID uuid.UUID, product ProductCreateDto) (*ProductDto, error)

	// Purchase decrements a product's stock by the requested quantity.
	// Returns ErrInvalidQuantity for a non-positive quantity and
	// ErrInsufficientStock when not enough units are available.
	Purchase(ctx context.Context, id uuid.UUID, buyerID uuid.UUID, quantity int32) error
}

// Service implements ProductService and provides methods to manage products.
type Service struct {
	repository store.ProductStore
	publisher  messaging.Publisher
	// atomic selects the conditional single-statement decrement. The default
	// (false) keeps the legacy two-step read-then-write purchase path.
	atomic bool
}

// NewService creates a new instance of ProductService with the provided repository.
func NewService(repo store.ProductStore, publisher messaging.Publisher, atomic bool) *Service {
	return &Service{
		repository: repo,
		publisher:  publisher,
		atomic:     atomic,
	}
}

// ProductCreateDto represents the data transfer object for creating a new product.
// Price and Quantity are pointers so a missing field is distinguishable from zero.
type ProductCreateDto struct {
	Name        string `json:"name"        validate:"required,max=200"`
	Price       *int64 `json:"price"       validate:"required,gte=0"`
	Quantity    *int32 `json:"quantity"    validate:"required,gte=0"`
	Description string `json:"description" validate:"max=2000"`
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Quantity    int32  `json:"quantity"`
	Description string `json:"description"`
	SellerID    string `json:"seller_id"`
	CreatedAt   string `json:"created_at"`
}

// PurchaseDto represents the data transfer object for buying a product.
type PurchaseDto struct {
	Quantity int32 `json:"quantity" validate:"required,gt=0"`
}

// FindByID retrieves a product by its ID and returns it as a ProductDto.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
	}

	return toDto(product), nil
}

// FindAll retrieves a list of all products and returns them as ProductDTOs.
// Returns an empty slice if no products exist or error if the retrieval fails.
func (s *Service) FindAll(ctx context.Context) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	productDTOs := make([]ProductDto, len(products))

	for i, item := range products {
		productDTOs[i] = *toDto(&item)
	}

	return productDTOs, nil
}

// Create creates a new product owned by sellerID and returns it as a ProductDto.
// Field values are passed through to the store as given.
func (s *Service) Create(ctx context.Context, sellerID uuid.UUID, product ProductCreateDto) (*ProductDto, error) {
	p, err := s.repository.Create(ctx, store.CreateProductParams{
		Name:        product.Name,
		Price:       *product.Price,
		Quantity:    *product.Quantity,
		Description: product.Description,
		SellerID:    sellerID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return toDto(p), nil
}

// Purchase verifies availability and decrements stock by the requested quantity.
//
// In the default mode the availability check and the quantity write are two
// separate store calls with no transaction or predicate between them: two
// concurrent purchases can both observe the same quantity, both pass the
// check, and both write, overselling the product. This is a known defect kept
// for behavioral compatibility; the atomic mode performs the decrement as one
// conditional statement and does not oversell.
func (s *Service) Purchase(ctx context.Context, id uuid.UUID, buyerID uuid.UUID, quantity int32) error {
	if quantity <= 0 {
		return perrors.ErrInvalidQuantity
	}

	if s.atomic {
		if err := s.purchaseAtomic(ctx, id, quantity); err != nil {
			return err
		}
	} else {
		if err := s.purchaseLegacy(ctx, id, quantity); err != nil {
			return err
		}
	}

	event := events.ProductPurchasedEvent{
		ProductID:  id,
		BuyerID:    buyerID,
		Quantity:   quantity,
		OccurredAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		// A lost event never fails the purchase itself.
		slog.ErrorContext(ctx, "Failed to publish ProductPurchasedEvent", "error", err)
	}
	return nil
}

// purchaseLegacy is the two-step read-then-write decrement.
func (s *Service) purchaseLegacy(ctx context.Context, id uuid.UUID, quantity int32) error {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, perrors.ErrProductNotFound) {
			// The legacy contract reports a missing product the same way as an
			// out-of-stock one.
			return perrors.ErrInsufficientStock
		}
		return fmt.Errorf("failed to fetch product %s for purchase: %w", id, err)
	}
	if product.Quantity < quantity {
		return perrors.ErrInsufficientStock
	}
	if err := s.repository.Decrement(ctx, id, quantity); err != nil {
		return fmt.Errorf("failed to decrement stock for product %s: %w", id, err)
	}
	return nil
}

// purchaseAtomic performs the decrement as a single conditional statement.
func (s *Service) purchaseAtomic(ctx context.Context, id uuid.UUID, quantity int32) error {
	ok, err := s.repository.DecrementIfAvailable(ctx, id, quantity)
	if err != nil {
		return fmt.Errorf("failed to decrement stock for product %s: %w", id, err)
	}
	if ok {
		return nil
	}
	// The predicate failed: distinguish a missing product from insufficient stock.
	if _, err := s.repository.FindByID(ctx, id); err != nil {
		if errors.Is(err, perrors.ErrProductNotFound) {
			return perrors.ErrProductNotFound
		}
		return fmt.Errorf("failed to fetch product %s for purchase: %w", id, err)
	}
	return perrors.ErrInsufficientStock
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:          product.ID.String(),
		Name:        product.Name,
		Price:       product.Price,
		Quantity:    product.Quantity,
		Description: product.Description,
		SellerID:    product.SellerID.String(),
		CreatedAt:   product.CreatedAt.Format(time.RFC3339),
	}
}
