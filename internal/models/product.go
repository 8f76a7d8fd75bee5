package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is the persisted catalog document. Stock is tracked as two
// counters: stockQuantity is the total owned units and reservedQuantity is
// the units provisionally held by unpaid orders. Both counters are mutated
// only through the inventory ledger, never by direct field writes.
type Product struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Sku              string             `bson:"sku" json:"sku"`
	Name             string             `bson:"name" json:"name"`
	Description      string             `bson:"description,omitempty" json:"description,omitempty"`
	Price            float64            `bson:"price" json:"price"`
	StockQuantity    int                `bson:"stockQuantity" json:"stockQuantity"`
	ReservedQuantity int                `bson:"reservedQuantity" json:"reservedQuantity"`
	ImageURL         string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Category         string             `bson:"category,omitempty" json:"category,omitempty"`
	IsActive         bool               `bson:"isActive" json:"isActive"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AvailableStock is the number of units a new checkout may still reserve.
func (p Product) AvailableStock() int {
	return p.StockQuantity - p.ReservedQuantity
}
