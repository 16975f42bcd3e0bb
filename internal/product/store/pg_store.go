package store

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/akrylov/marketplace/internal/product/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = "id, name, price, quantity, description, seller_id, created_at"

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// FindByID retrieves a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) FindByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	row := p.db.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, nil
}

// FindAll retrieves all available products.
// It returns a slice of products, which may be empty if no products exist.
func (p *PgStore) FindAll(ctx context.Context) ([]Product, error) {
	rows, err := p.db.Query(ctx,
		"SELECT "+productColumns+" FROM products ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate product rows: %w", err)
	}
	return products, nil
}

// Create adds a new product to the system.
// Constraint violations surface as ErrInvalidProduct.
func (p *PgStore) Create(ctx context.Context, params CreateProductParams) (*Product, error) {
	row := p.db.QueryRow(ctx,
		`INSERT INTO products (name, price, quantity, description, seller_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+productColumns,
		params.Name, params.Price, params.Quantity, params.Description, params.SellerID)
	product, err := scanProduct(row)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, fmt.Errorf("%w: %v", perrors.ErrInvalidProduct, err)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// Decrement subtracts `by` units without an availability predicate.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) Decrement(ctx context.Context, id uuid.UUID, by int32) error {
	tag, err := p.db.Exec(ctx,
		"UPDATE products SET quantity = quantity - $2 WHERE id = $1", id, by)
	if err != nil {
		return fmt.Errorf("failed to decrement product quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return perrors.ErrProductNotFound
	}
	return nil
}

// DecrementIfAvailable subtracts `by` units in a single conditional UPDATE.
// The predicate makes the availability check and the write indivisible.
func (p *PgStore) DecrementIfAvailable(ctx context.Context, id uuid.UUID, by int32) (bool, error) {
	tag, err := p.db.Exec(ctx,
		"UPDATE products SET quantity = quantity - $2 WHERE id = $1 AND quantity >= $2",
		id, by)
	if err != nil {
		return false, fmt.Errorf("failed to decrement product quantity: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// scanProduct reads one product from a row.
func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.Description, &p.SellerID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// isConstraintViolation reports whether err is a CHECK or NOT NULL violation.
func isConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23514" || pgErr.Code == "23502"
}
