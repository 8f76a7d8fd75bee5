package store

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStockErrorUnwrapsToInsufficientStock(t *testing.T) {
	err := StockError{ProductID: primitive.NewObjectID(), Requested: 3, Available: 1}

	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatal("StockError must match ErrInsufficientStock")
	}

	wrapped := fmt.Errorf("checkout: %w", err)
	var stockErr StockError
	if !errors.As(wrapped, &stockErr) {
		t.Fatal("StockError must survive wrapping")
	}
	if stockErr.Requested != 3 || stockErr.Available != 1 {
		t.Fatalf("detail lost in wrapping: %+v", stockErr)
	}
}

func TestStockErrorMessage(t *testing.T) {
	id := primitive.NewObjectID()
	err := StockError{ProductID: id, Requested: 5, Available: 2}
	if !strings.Contains(err.Error(), id.Hex()) {
		t.Fatalf("message should identify the product: %s", err.Error())
	}
}
