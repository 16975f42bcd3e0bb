package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	perrors "github.com/akrylov/marketplace/internal/product/errors"
	"github.com/akrylov/marketplace/internal/product/store"
	"github.com/akrylov/marketplace/pkg/messaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProductStore is a mock implementation of the ProductStore interface
type mockProductStore struct {
	products []store.Product
	product  store.Product
	error    error

	decrementAvailable bool
	decrementedBy      []int32
	findCalls          int
}

// Simulate finding a product by ID
func (m *mockProductStore) FindByID(_ context.Context, _ uuid.UUID) (*store.Product, error) {
	m.findCalls++
	return &m.product, m.error
}

// Simulate finding all products
func (m *mockProductStore) FindAll(_ context.Context) ([]store.Product, error) {
	return m.products, m.error
}

// Simulate creating a product
func (m *mockProductStore) Create(_ context.Context, _ store.CreateProductParams) (*store.Product, error) {
	return &m.product, m.error
}

// Simulate the unconditional decrement
func (m *mockProductStore) Decrement(_ context.Context, _ uuid.UUID, by int32) error {
	m.decrementedBy = append(m.decrementedBy, by)
	return m.error
}

// Simulate the conditional decrement
func (m *mockProductStore) DecrementIfAvailable(_ context.Context, _ uuid.UUID, by int32) (bool, error) {
	if m.error != nil {
		return false, m.error
	}
	if m.decrementAvailable {
		m.decrementedBy = append(m.decrementedBy, by)
	}
	return m.decrementAvailable, nil
}

// mockPublisher records published events.
type mockPublisher struct {
	mu     sync.Mutex
	events []messaging.Event
	error  error
}

func (m *mockPublisher) Publish(_ context.Context, event messaging.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.error != nil {
		return m.error
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) published() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func Test_ProductService_FindByID(t *testing.T) {
	mockID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174000")
	testCases := []struct {
		name        string
		mockStore   *mockProductStore
		productID   uuid.UUID
		expected    *ProductDto
		expectError error
	}{
		{
			name: "Success - product found",
			mockStore: &mockProductStore{
				product: store.Product{ID: mockID, Name: "Toy", Quantity: 3},
				error:   nil,
			},
			productID: mockID,
			expected: &ProductDto{
				ID:        mockID.String(),
				Name:      "Toy",
				Quantity:  3,
				SellerID:  uuid.Nil.String(),
				CreatedAt: "0001-01-01T00:00:00Z",
			},
			expectError: nil,
		},
		{
			name: "Error - product not found",
			mockStore: &mockProductStore{
				error: perrors.ErrProductNotFound,
			},
			productID:   mockID,
			expected:    nil,
			expectError: perrors.ErrProductNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.mockStore, &mockPublisher{}, false)
			// when
			found, err := service.FindByID(context.Background(), tc.productID)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, found)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, found)
		})
	}
}

func Test_ProductService_FindAll(t *testing.T) {
	ErrStoreError := errors.New("store error")
	mockID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174000")
	testCases := []struct {
		name        string
		mockStore   *mockProductStore
		expectedLen int
		expectError error
	}{
		{
			name: "Success - products found",
			mockStore: &mockProductStore{
				products: []store.Product{{ID: mockID, Name: "Toy"}},
			},
			expectedLen: 1,
		},
		{
			name:        "Success - no products yields empty slice",
			mockStore:   &mockProductStore{products: []store.Product{}},
			expectedLen: 0,
		},
		{
			name:        "Error - store failure",
			mockStore:   &mockProductStore{error: ErrStoreError},
			expectError: ErrStoreError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.mockStore, &mockPublisher{}, false)
			// when
			list, err := service.FindAll(context.Background())
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, list)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, list)
			assert.Len(t, list, tc.expectedLen)
		})
	}
}

func Test_ProductService_Create(t *testing.T) {
	mockID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174000")
	sellerID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174001")
	price := int64(1500)
	quantity := int32(10)
	testCases := []struct {
		name        string
		mockStore   *mockProductStore
		dto         ProductCreateDto
		expectError error
	}{
		{
			name: "Success - product created",
			mockStore: &mockProductStore{
				product: store.Product{ID: mockID, Name: "Toy", Price: 1500, Quantity: 10, SellerID: sellerID},
			},
			dto: ProductCreateDto{Name: "Toy", Price: &price, Quantity: &quantity},
		},
		{
			name:        "Error - store rejects record",
			mockStore:   &mockProductStore{error: perrors.ErrInvalidProduct},
			dto:         ProductCreateDto{Name: "Toy", Price: &price, Quantity: &quantity},
			expectError: perrors.ErrInvalidProduct,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.mockStore, &mockPublisher{}, false)
			// when
			created, err := service.Create(context.Background(), sellerID, tc.dto)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, created)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Toy", created.Name)
			assert.Equal(t, int64(1500), created.Price)
			assert.Equal(t, int32(10), created.Quantity)
			assert.Equal(t, sellerID.String(), created.SellerID)
		})
	}
}

func Test_ProductService_Purchase_Legacy(t *testing.T) {
	mockID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174000")
	buyerID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174002")
	testCases := []struct {
		name            string
		mockStore       *mockProductStore
		quantity        int32
		expectError     error
		expectDecrement []int32
		expectPublished int
	}{
		{
			name: "Success - stock decremented and event published",
			mockStore: &mockProductStore{
				product: store.Product{ID: mockID, Quantity: 10},
			},
			quantity:        6,
			expectDecrement: []int32{6},
			expectPublished: 1,
		},
		{
			name: "Error - insufficient stock leaves quantity untouched",
			mockStore: &mockProductStore{
				product: store.Product{ID: mockID, Quantity: 5},
			},
			quantity:    6,
			expectError: perrors.ErrInsufficientStock,
		},
		{
			name: "Error - missing product reported as insufficient stock",
			mockStore: &mockProductStore{
				error: perrors.ErrProductNotFound,
			},
			quantity:    1,
			expectError: perrors.ErrInsufficientStock,
		},
		{
			name:        "Error - zero quantity rejected before any store call",
			mockStore:   &mockProductStore{product: store.Product{ID: mockID, Quantity: 10}},
			quantity:    0,
			expectError: perrors.ErrInvalidQuantity,
		},
		{
			name:        "Error - negative quantity rejected before any store call",
			mockStore:   &mockProductStore{product: store.Product{ID: mockID, Quantity: 10}},
			quantity:    -4,
			expectError: perrors.ErrInvalidQuantity,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			publisher := &mockPublisher{}
			service := NewService(tc.mockStore, publisher, false)
			// when
			err := service.Purchase(context.Background(), mockID, buyerID, tc.quantity)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Empty(t, tc.mockStore.decrementedBy)
				assert.Zero(t, publisher.published())
				if errors.Is(tc.expectError, perrors.ErrInvalidQuantity) {
					assert.Zero(t, tc.mockStore.findCalls)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectDecrement, tc.mockStore.decrementedBy)
			assert.Equal(t, tc.expectPublished, publisher.published())
		})
	}
}

func Test_ProductService_Purchase_Atomic(t *testing.T) {
	mockID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174000")
	buyerID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174002")
	testCases := []struct {
		name        string
		mockStore   *mockProductStore
		quantity    int32
		expectError error
	}{
		{
			name: "Success - conditional decrement applied",
			mockStore: &mockProductStore{
				product:            store.Product{ID: mockID, Quantity: 10},
				decrementAvailable: true,
			},
			quantity: 6,
		},
		{
			name: "Error - predicate failed with existing product",
			mockStore: &mockProductStore{
				product: store.Product{ID: mockID, Quantity: 5},
			},
			quantity:    6,
			expectError: perrors.ErrInsufficientStock,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			publisher := &mockPublisher{}
			service := NewService(tc.mockStore, publisher, true)
			// when
			err := service.Purchase(context.Background(), mockID, buyerID, tc.quantity)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Zero(t, publisher.published())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []int32{6}, tc.mockStore.decrementedBy)
			assert.Equal(t, 1, publisher.published())
		})
	}
}

func Test_ProductService_Purchase_Atomic_MissingProduct(t *testing.T) {
	// given: predicate fails and the follow-up lookup also misses
	mockID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174000")
	service := NewService(&atomicMissMock{}, &mockPublisher{}, true)
	// when
	err := service.Purchase(context.Background(), mockID, uuid.New(), 1)
	// then
	assert.ErrorIs(t, err, perrors.ErrProductNotFound)
}

// atomicMissMock fails the predicate and reports the product as missing.
type atomicMissMock struct{ mockProductStore }

func (m *atomicMissMock) DecrementIfAvailable(context.Context, uuid.UUID, int32) (bool, error) {
	return false, nil
}

func (m *atomicMissMock) FindByID(context.Context, uuid.UUID) (*store.Product, error) {
	return nil, perrors.ErrProductNotFound
}

func Test_ProductService_Purchase_PublishFailureDoesNotFailPurchase(t *testing.T) {
	// given
	mockID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174000")
	mockStore := &mockProductStore{product: store.Product{ID: mockID, Quantity: 10}}
	publisher := &mockPublisher{error: errors.New("nats unavailable")}
	service := NewService(mockStore, publisher, false)
	// when
	err := service.Purchase(context.Background(), mockID, uuid.New(), 2)
	// then
	require.NoError(t, err)
	assert.Equal(t, []int32{2}, mockStore.decrementedBy)
}

// gatedStore pauses every FindByID after the read so the test can line up two
// purchases on the same observed quantity.
type gatedStore struct {
	store.ProductStore
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) FindByID(ctx context.Context, id uuid.UUID) (*store.Product, error) {
	p, err := g.ProductStore.FindByID(ctx, id)
	g.entered <- struct{}{}
	<-g.release
	return p, err
}

// Two concurrent purchases of 6 against a stock of 10: both reads observe 10,
// both pass the availability check, both subtract, and the stored quantity
// ends at -2. This documents the known oversell defect of the legacy path.
func Test_ProductService_Purchase_Legacy_ConcurrentOversell(t *testing.T) {
	// given
	ctx := context.Background()
	memStore := store.NewInMemoryStore()
	created, err := memStore.Create(ctx, store.CreateProductParams{
		Name: "Limited Toy", Price: 100, Quantity: 10, SellerID: uuid.New(),
	})
	require.NoError(t, err)

	gated := &gatedStore{
		ProductStore: memStore,
		entered:      make(chan struct{}, 2),
		release:      make(chan struct{}),
	}
	service := NewService(gated, &mockPublisher{}, false)

	// when: both purchases read before either writes
	var wg sync.WaitGroup
	results := make(chan error, 2)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- service.Purchase(ctx, created.ID, uuid.New(), 6)
		}()
	}
	<-gated.entered
	<-gated.entered
	close(gated.release)
	wg.Wait()
	close(results)

	// then: both succeed and the product is oversold
	for err := range results {
		assert.NoError(t, err)
	}
	final, err := memStore.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(-2), final.Quantity)
}

// The atomic variant under the same interleaving admits exactly one success.
func Test_ProductService_Purchase_Atomic_ConcurrentNoOversell(t *testing.T) {
	// given
	ctx := context.Background()
	memStore := store.NewInMemoryStore()
	created, err := memStore.Create(ctx, store.CreateProductParams{
		Name: "Limited Toy", Price: 100, Quantity: 10, SellerID: uuid.New(),
	})
	require.NoError(t, err)
	service := NewService(memStore, &mockPublisher{}, true)

	// when
	var wg sync.WaitGroup
	results := make(chan error, 2)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- service.Purchase(ctx, created.ID, uuid.New(), 6)
		}()
	}
	wg.Wait()
	close(results)

	// then: exactly one success, one insufficient-stock rejection
	var successes, rejections int
	for err := range results {
		if err == nil {
			successes++
		} else if errors.Is(err, perrors.ErrInsufficientStock) {
			rejections++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, rejections)
	final, err := memStore.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(4), final.Quantity)
}
