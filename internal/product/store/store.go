// Package store provides an interface for product storage operations.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Product represents a product record in the store.
type Product struct {
	ID          uuid.UUID
	Name        string
	Price       int64 // Price in minor currency units
	Quantity    int32
	Description string
	SellerID    uuid.UUID
	CreatedAt   time.Time
}

// CreateProductParams holds the fields for creating a new product.
type CreateProductParams struct {
	Name        string
	Price       int64
	Quantity    int32
	Description string
	SellerID    uuid.UUID
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type ProductStore interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindAll returns all available products.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]Product, error)

	// Create adds a new product to the system.
	// Returns ErrInvalidProduct if the store rejects the record.
	Create(ctx context.Context, params CreateProductParams) (*Product, error)

	// Decrement subtracts `by` units unconditionally. The write carries no
	// availability predicate: callers that read-then-decrement are not
	// serialized against each other and the quantity can go negative.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Decrement(ctx context.Context, id uuid.UUID, by int32) error

	// DecrementIfAvailable atomically subtracts `by` units if at least that
	// many are available, as a single conditional statement against the store.
	// Returns false when the product is missing or stock is insufficient.
	DecrementIfAvailable(ctx context.Context, id uuid.UUID, by int32) (bool, error)
}
