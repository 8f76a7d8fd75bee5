package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureProductIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("products").Indexes()

	skuIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "sku", Value: 1}},
		Options: options.Index().
			SetName("sku_unique").
			SetUnique(true),
	}

	log.Println("EnsureProductIndexes: creating sku_unique index")
	_, err := indexes.CreateOne(ctx, skuIndex)
	if err != nil {
		log.Println("EnsureProductIndexes: sku index error:", err)
		return err
	}
	return nil
}

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	log.Println("EnsureUserIndexes: creating email_unique index")
	_, err := indexes.CreateOne(ctx, emailIndex)
	if err != nil {
		log.Println("EnsureUserIndexes: email index error:", err)
		return err
	}
	return nil
}

func EnsureCartIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("carts").Indexes()

	userIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().
			SetName("userId_unique").
			SetUnique(true),
	}

	log.Println("EnsureCartIndexes: creating userId_unique index")
	_, err := indexes.CreateOne(ctx, userIndex)
	if err != nil {
		log.Println("EnsureCartIndexes: userId index error:", err)
		return err
	}
	return nil
}

// EnsureOrderIndexes creates the webhook correlation index. The payment
// reference must be unique so a gateway callback resolves to exactly one
// order; partial so unreferenced PENDING orders do not collide.
func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("orders").Indexes()

	referenceIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "paymentReference", Value: 1}},
		Options: options.Index().
			SetName("paymentReference_unique").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{
				"paymentReference": bson.M{
					"$exists": true,
				},
			}),
	}

	userIDIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetName("userId_index"),
	}

	log.Println("EnsureOrderIndexes: creating paymentReference_unique and userId_index indexes")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{referenceIndex, userIDIndex})
	if err != nil {
		log.Println("EnsureOrderIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsurePaymentIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("payments").Indexes()

	referenceIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "paystackReference", Value: 1}},
		Options: options.Index().
			SetName("paystackReference_unique").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{
				"paystackReference": bson.M{
					"$exists": true,
				},
			}),
	}

	orderIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "orderId", Value: 1}},
		Options: options.Index().
			SetName("orderId_unique").
			SetUnique(true),
	}

	log.Println("EnsurePaymentIndexes: creating paystackReference_unique and orderId_unique indexes")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{referenceIndex, orderIndex})
	if err != nil {
		log.Println("EnsurePaymentIndexes: index error:", err)
		return err
	}
	return nil
}
