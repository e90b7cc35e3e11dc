// Package errors provides sentinel errors for product and order operations.
package errors

import (
	"errors"
	"fmt"
)

var ErrProductNotFound = errors.New("product not found")
var ErrOrderNotFound = errors.New("order not found")

// ErrProductReferenceNotFound is returned when an order references a product id that does not exist.
var ErrProductReferenceNotFound = errors.New("referenced product not found")

var ErrTransactionBegin = errors.New("failed to begin transaction")
var ErrTransactionCommit = errors.New("failed to commit transaction")
var ErrTransactionRollback = errors.New("failed to rollback transaction")

// MissingProductError names the product id that could not be resolved. It matches ErrProductReferenceNotFound.
type MissingProductError struct {
	ProductID int64
}

func (e *MissingProductError) Error() string {
	return fmt.Sprintf("product %d: %s", e.ProductID, ErrProductReferenceNotFound)
}

func (e *MissingProductError) Unwrap() error {
	return ErrProductReferenceNotFound
}
