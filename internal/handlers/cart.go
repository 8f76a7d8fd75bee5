package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
	"backend/internal/store"
)

type addCartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

func GetCart(carts *store.Carts) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := carts.GetByUser(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"items": []models.CartItem{}})
			return
		}
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, cart)
	}
}

// AddCartItem puts qty units of a product into the cart. The available-stock
// check here is advisory only; the binding reservation happens at checkout.
func AddCartItem(carts *store.Carts, products *store.Products) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/items"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req addCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		productID, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		product, err := products.GetByID(ctx, productID)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		if product.AvailableStock() < req.Quantity {
			respondServiceError(c, route, store.StockError{
				ProductID: product.ID,
				Requested: req.Quantity,
				Available: product.AvailableStock(),
			})
			return
		}

		if err := carts.AddItem(ctx, userID, productID, req.Quantity); err != nil {
			respondServiceError(c, route, err)
			return
		}

		log.Printf("[CART] [INFO] user %s added %d x %s", userID.Hex(), req.Quantity, productID.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "item added"})
	}
}

func RemoveCartItem(carts *store.Carts) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/items/:productId"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := carts.RemoveItem(ctx, userID, productID); err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "item removed"})
	}
}
