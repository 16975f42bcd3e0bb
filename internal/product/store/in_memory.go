package store

import (
	"context"
	"sync"
	"time"

	perrors "github.com/akrylov/marketplace/internal/product/errors"
	"github.com/google/uuid"
)

// inMemory implements ProductStore using an in-memory map.
type inMemory struct {
	mu       sync.RWMutex
	products map[uuid.UUID]Product
}

// NewInMemoryStore creates a new instance of ProductStore
func NewInMemoryStore() ProductStore {
	return &inMemory{
		products: make(map[uuid.UUID]Product),
	}
}

// FindByID retrieves a product by its ID.
func (s *inMemory) FindByID(_ context.Context, id uuid.UUID) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, perrors.ErrProductNotFound
	}
	return &p, nil
}

// FindAll retrieves all products.
func (s *inMemory) FindAll(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		list = append(list, p)
	}
	return list, nil
}

// Create creates a new product and returns it.
func (s *inMemory) Create(_ context.Context, params CreateProductParams) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product := Product{
		ID:          uuid.New(),
		Name:        params.Name,
		Price:       params.Price,
		Quantity:    params.Quantity,
		Description: params.Description,
		SellerID:    params.SellerID,
		CreatedAt:   time.Now(),
	}
	s.products[product.ID] = product

	return &product, nil
}

// Decrement subtracts `by` units. Like the database implementation, the write
// itself carries no availability predicate and can drive the quantity negative.
func (s *inMemory) Decrement(_ context.Context, id uuid.UUID, by int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return perrors.ErrProductNotFound
	}
	p.Quantity -= by
	s.products[id] = p
	return nil
}

// DecrementIfAvailable subtracts `by` units while holding the store lock, so
// the check and the write are indivisible.
func (s *inMemory) DecrementIfAvailable(_ context.Context, id uuid.UUID, by int32) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok || p.Quantity < by {
		return false, nil
	}
	p.Quantity -= by
	s.products[id] = p
	return true, nil
}
