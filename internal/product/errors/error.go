// Package errors provides custom error types for product-related operations.
package errors

import "errors"

var (
	// ErrProductNotFound is returned when a product ID does not resolve to a record.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock is returned when a purchase requests more units than are available.
	ErrInsufficientStock = errors.New("insufficient quantity")

	// ErrInvalidQuantity is returned when a purchase requests a non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")

	// ErrInvalidProduct is returned when the store rejects a product record.
	ErrInvalidProduct = errors.New("invalid product data")
)
