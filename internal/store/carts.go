package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

type Carts struct {
	db *mongo.Database
}

func NewCarts(db *mongo.Database) *Carts {
	return &Carts{db: db}
}

func (s *Carts) GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.Collection("carts").FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cart for user %s: %w", userID.Hex(), err)
	}
	return &cart, nil
}

// AddItem adds qty units of a product to the user's cart, creating the cart
// if needed and folding into an existing line for the same product.
func (s *Carts) AddItem(ctx context.Context, userID, productID primitive.ObjectID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("add to cart: quantity must be positive, got %d", qty)
	}

	now := time.Now().UTC()

	// Try to bump an existing line first.
	res, err := s.db.Collection("carts").UpdateOne(ctx,
		bson.M{"userId": userID, "items.productId": productID},
		bson.M{
			"$inc": bson.M{"items.$.quantity": qty},
			"$set": bson.M{"updatedAt": now},
		},
	)
	if err != nil {
		return fmt.Errorf("update cart line for user %s: %w", userID.Hex(), err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	item := models.CartItem{ProductID: productID, Quantity: qty, AddedAt: now}
	_, err = s.db.Collection("carts").UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{
			"$push":        bson.M{"items": item},
			"$set":         bson.M{"updatedAt": now},
			"$setOnInsert": bson.M{"userId": userID, "createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("push cart line for user %s: %w", userID.Hex(), err)
	}
	return nil
}

func (s *Carts) RemoveItem(ctx context.Context, userID, productID primitive.ObjectID) error {
	res, err := s.db.Collection("carts").UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{
			"$pull": bson.M{"items": bson.M{"productId": productID}},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("remove cart line for user %s: %w", userID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear empties the cart without deleting the document. Clearing an absent
// or already-empty cart is a no-op so the reconciler can call it blindly.
func (s *Carts) Clear(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.db.Collection("carts").UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{
			"$set": bson.M{"items": []models.CartItem{}, "updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("clear cart for user %s: %w", userID.Hex(), err)
	}
	return nil
}
