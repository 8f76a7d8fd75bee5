package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentStatus values mirror the gateway's transaction lifecycle.
const (
	PaymentStatusPending           = "PENDING"
	PaymentStatusProcessing        = "PROCESSING"
	PaymentStatusCompleted         = "COMPLETED"
	PaymentStatusFailed            = "FAILED"
	PaymentStatusAbandoned         = "ABANDONED"
	PaymentStatusCancelled         = "CANCELLED"
	PaymentStatusRefunded          = "REFUNDED"
	PaymentStatusPartiallyRefunded = "PARTIALLY_REFUNDED"
)

// Payment is the one-to-one payment record for an order. It is created
// alongside the order at checkout initiation and mutated only by the
// reconciler in response to verified gateway events; never deleted.
type Payment struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID           primitive.ObjectID `bson:"orderId" json:"orderId"`
	PaystackReference string             `bson:"paystackReference,omitempty" json:"paystackReference,omitempty"`
	Amount            float64            `bson:"amount" json:"amount"`
	AmountInKobo      int64              `bson:"amountInKobo" json:"amountInKobo"`
	Currency          string             `bson:"currency" json:"currency"`
	Status            string             `bson:"status" json:"status"`
	PaymentDate       *time.Time         `bson:"paymentDate,omitempty" json:"paymentDate,omitempty"`
	Channel           string             `bson:"channel,omitempty" json:"channel,omitempty"`
	CardLastFour      string             `bson:"cardLastFour,omitempty" json:"cardLastFour,omitempty"`
	CardType          string             `bson:"cardType,omitempty" json:"cardType,omitempty"`
	FailureReason     string             `bson:"failureReason,omitempty" json:"failureReason,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}
