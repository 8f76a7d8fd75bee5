package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

type Products struct {
	db *mongo.Database
}

func NewProducts(db *mongo.Database) *Products {
	return &Products{db: db}
}

func (s *Products) GetByID(ctx context.Context, productID primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := s.db.Collection("products").FindOne(ctx, bson.M{
		"_id":      productID,
		"isActive": true,
	}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", productID.Hex(), err)
	}
	return &product, nil
}

func (s *Products) List(ctx context.Context) ([]models.Product, error) {
	cursor, err := s.db.Collection("products").Find(ctx, bson.M{"isActive": true})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func (s *Products) Create(ctx context.Context, product *models.Product) error {
	now := time.Now().UTC()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := s.db.Collection("products").InsertOne(ctx, product); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// SetStock replaces stockQuantity. The filter refuses a value below the
// current reservedQuantity so the 0 <= reserved <= stock invariant holds
// even while checkouts are in flight.
func (s *Products) SetStock(ctx context.Context, productID primitive.ObjectID, stockQuantity int) error {
	if stockQuantity < 0 {
		return fmt.Errorf("set stock: quantity must not be negative, got %d", stockQuantity)
	}

	res, err := s.db.Collection("products").UpdateOne(ctx,
		bson.M{
			"_id":              productID,
			"reservedQuantity": bson.M{"$lte": stockQuantity},
		},
		bson.M{
			"$set":         bson.M{"stockQuantity": stockQuantity},
			"$currentDate": bson.M{"updatedAt": true},
		},
	)
	if err != nil {
		return fmt.Errorf("set stock for product %s: %w", productID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("set stock for product %s below reserved quantity: %w", productID.Hex(), ErrInsufficientStock)
	}
	return nil
}
