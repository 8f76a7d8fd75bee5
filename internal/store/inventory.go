package store

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Ledger owns the stockQuantity/reservedQuantity counters. Every mutation is
// a single conditional UpdateOne so two concurrent checkouts can never
// oversell the same unit: the document filter is the lock, not application
// code.
type Ledger struct {
	db *mongo.Database
}

func NewLedger(db *mongo.Database) *Ledger {
	return &Ledger{db: db}
}

// Reserve increments reservedQuantity by qty only if the available stock
// (stockQuantity - reservedQuantity) is at least qty at the moment of the
// update. A zero-match result means the stock was gone and the reservation
// is rejected.
func (l *Ledger) Reserve(ctx context.Context, productID primitive.ObjectID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("reserve: quantity must be positive, got %d", qty)
	}

	filter := bson.M{
		"_id":      productID,
		"isActive": true,
		"$expr": bson.M{
			"$gte": bson.A{
				bson.M{"$subtract": bson.A{"$stockQuantity", "$reservedQuantity"}},
				qty,
			},
		},
	}
	update := bson.M{
		"$inc":         bson.M{"reservedQuantity": qty},
		"$currentDate": bson.M{"updatedAt": true},
	}

	res, err := l.db.Collection("products").UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("reserve product %s: %w", productID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// Release returns qty reserved units to availability. Releasing more than is
// currently reserved is treated as an idempotent no-op: reconciliation may
// be invoked more than once for the same order and must never drive
// reservedQuantity negative.
func (l *Ledger) Release(ctx context.Context, productID primitive.ObjectID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("release: quantity must be positive, got %d", qty)
	}

	filter := bson.M{
		"_id":              productID,
		"reservedQuantity": bson.M{"$gte": qty},
	}
	update := bson.M{
		"$inc":         bson.M{"reservedQuantity": -qty},
		"$currentDate": bson.M{"updatedAt": true},
	}

	res, err := l.db.Collection("products").UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("release product %s: %w", productID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		log.Printf("[INVENTORY] [WARN] release of %d units for product %s skipped: nothing reserved", qty, productID.Hex())
	}
	return nil
}

// Commit permanently consumes qty reserved units on confirmed payment,
// decrementing both counters so the units never return to availability.
// Like Release it is an idempotent no-op when the reservation is gone.
func (l *Ledger) Commit(ctx context.Context, productID primitive.ObjectID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("commit: quantity must be positive, got %d", qty)
	}

	filter := bson.M{
		"_id":              productID,
		"reservedQuantity": bson.M{"$gte": qty},
	}
	update := bson.M{
		"$inc": bson.M{
			"stockQuantity":    -qty,
			"reservedQuantity": -qty,
		},
		"$currentDate": bson.M{"updatedAt": true},
	}

	res, err := l.db.Collection("products").UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("commit product %s: %w", productID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		log.Printf("[INVENTORY] [WARN] commit of %d units for product %s skipped: nothing reserved", qty, productID.Hex())
	}
	return nil
}
