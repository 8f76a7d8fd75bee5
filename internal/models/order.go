package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus values. PENDING orders are awaiting payment; CONFIRMED and
// FAILED are the terminal outcomes of payment reconciliation. The remaining
// states belong to fulfillment.
const (
	OrderStatusPending    = "PENDING"
	OrderStatusConfirmed  = "CONFIRMED"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
	OrderStatusRefunded   = "REFUNDED"
	OrderStatusFailed     = "FAILED"
)

// OrderItem is a historical snapshot of a product at order time. Later
// product edits never change a placed order; ProductID is kept for audit
// only.
type OrderItem struct {
	ProductID       primitive.ObjectID `bson:"productId" json:"productId"`
	ProductName     string             `bson:"productName" json:"productName"`
	ProductSku      string             `bson:"productSku" json:"productSku"`
	ProductImageURL string             `bson:"productImageUrl,omitempty" json:"productImageUrl,omitempty"`
	UnitPrice       float64            `bson:"unitPrice" json:"unitPrice"`
	Quantity        int                `bson:"quantity" json:"quantity"`
	LineTotal       float64            `bson:"lineTotal" json:"lineTotal"`
}

// Order is the persisted order document. The item list is immutable after
// creation; orders are never deleted, their lifecycle lives in orderStatus.
// PaymentReference correlates the order with the gateway transaction and is
// empty until the gateway init succeeds.
type Order struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID `bson:"userId" json:"userId"`
	Items            []OrderItem        `bson:"items" json:"items"`
	TotalAmount      float64            `bson:"totalAmount" json:"totalAmount"`
	OrderStatus      string             `bson:"orderStatus" json:"orderStatus"`
	PaymentReference string             `bson:"paymentReference,omitempty" json:"paymentReference,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}
