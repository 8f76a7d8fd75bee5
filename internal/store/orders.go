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

type Orders struct {
	db *mongo.Database
}

func NewOrders(db *mongo.Database) *Orders {
	return &Orders{db: db}
}

// Create persists the order and its payment record as a single atomic unit.
// Both documents get their IDs assigned on the way in.
func (s *Orders) Create(ctx context.Context, order *models.Order, payment *models.Payment) error {
	now := time.Now().UTC()
	order.ID = primitive.NewObjectID()
	order.CreatedAt = now
	order.UpdatedAt = now

	payment.ID = primitive.NewObjectID()
	payment.OrderID = order.ID
	payment.CreatedAt = now
	payment.UpdatedAt = now

	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := s.db.Collection("orders").InsertOne(sessCtx, order); err != nil {
			return nil, err
		}
		if _, err := s.db.Collection("payments").InsertOne(sessCtx, payment); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (s *Orders) GetByID(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := s.db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID.Hex(), err)
	}
	return &order, nil
}

// GetByPaymentReference resolves a gateway callback to its order. A missing
// reference is a terminal ErrNotFound for that delivery.
func (s *Orders) GetByPaymentReference(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	err := s.db.Collection("orders").FindOne(ctx, bson.M{"paymentReference": reference}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order by reference %q: %w", reference, err)
	}
	return &order, nil
}

func (s *Orders) SetPaymentReference(ctx context.Context, orderID primitive.ObjectID, reference string) error {
	res, err := s.db.Collection("orders").UpdateOne(ctx,
		bson.M{"_id": orderID},
		bson.M{
			"$set":         bson.M{"paymentReference": reference},
			"$currentDate": bson.M{"updatedAt": true},
		},
	)
	if err != nil {
		return fmt.Errorf("set payment reference on order %s: %w", orderID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// TransitionStatus moves an order from one status to another as a single
// conditional update. It reports false when the order was not in the
// expected source status, which is how concurrent duplicate webhook
// deliveries are detected: only one delivery wins the transition.
func (s *Orders) TransitionStatus(ctx context.Context, orderID primitive.ObjectID, from, to string) (bool, error) {
	res, err := s.db.Collection("orders").UpdateOne(ctx,
		bson.M{"_id": orderID, "orderStatus": from},
		bson.M{
			"$set":         bson.M{"orderStatus": to},
			"$currentDate": bson.M{"updatedAt": true},
		},
	)
	if err != nil {
		return false, fmt.Errorf("transition order %s %s->%s: %w", orderID.Hex(), from, to, err)
	}
	return res.ModifiedCount == 1, nil
}

func (s *Orders) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.db.Collection("orders").Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list orders for user %s: %w", userID.Hex(), err)
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}
