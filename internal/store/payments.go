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

type Payments struct {
	db *mongo.Database
}

func NewPayments(db *mongo.Database) *Payments {
	return &Payments{db: db}
}

func (s *Payments) GetByOrder(ctx context.Context, orderID primitive.ObjectID) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.Collection("payments").FindOne(ctx, bson.M{"orderId": orderID}).Decode(&payment)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payment for order %s: %w", orderID.Hex(), err)
	}
	return &payment, nil
}

func (s *Payments) SetReference(ctx context.Context, orderID primitive.ObjectID, reference string) error {
	res, err := s.db.Collection("payments").UpdateOne(ctx,
		bson.M{"orderId": orderID},
		bson.M{
			"$set":         bson.M{"paystackReference": reference},
			"$currentDate": bson.M{"updatedAt": true},
		},
	)
	if err != nil {
		return fmt.Errorf("set reference on payment for order %s: %w", orderID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CardMeta is the card/channel metadata the gateway reports on a completed
// charge.
type CardMeta struct {
	Channel      string
	CardType     string
	CardLastFour string
}

func (s *Payments) MarkCompleted(ctx context.Context, orderID primitive.ObjectID, paidAt time.Time, meta CardMeta) error {
	set := bson.M{
		"status":      models.PaymentStatusCompleted,
		"paymentDate": paidAt,
	}
	if meta.Channel != "" {
		set["channel"] = meta.Channel
	}
	if meta.CardType != "" {
		set["cardType"] = meta.CardType
	}
	if meta.CardLastFour != "" {
		set["cardLastFour"] = meta.CardLastFour
	}

	res, err := s.db.Collection("payments").UpdateOne(ctx,
		bson.M{"orderId": orderID},
		bson.M{"$set": set, "$currentDate": bson.M{"updatedAt": true}},
	)
	if err != nil {
		return fmt.Errorf("mark payment completed for order %s: %w", orderID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Payments) MarkFailed(ctx context.Context, orderID primitive.ObjectID, status, reason string) error {
	res, err := s.db.Collection("payments").UpdateOne(ctx,
		bson.M{"orderId": orderID},
		bson.M{
			"$set":         bson.M{"status": status, "failureReason": reason},
			"$currentDate": bson.M{"updatedAt": true},
		},
	)
	if err != nil {
		return fmt.Errorf("mark payment failed for order %s: %w", orderID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
