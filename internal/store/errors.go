package store

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound covers missing users, carts, products, orders and payments.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock means a conditional reserve matched zero
	// documents: the available stock at the moment of the update was below
	// the requested quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// StockError carries the rejected line's detail for the API response.
type StockError struct {
	ProductID primitive.ObjectID
	Requested int
	Available int
}

func (e StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID.Hex(), e.Requested, e.Available)
}

func (e StockError) Unwrap() error {
	return ErrInsufficientStock
}
