package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
	"backend/internal/store"
)

type createProductRequest struct {
	Sku           string  `json:"sku" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Description   string  `json:"description"`
	Price         float64 `json:"price" binding:"required,gt=0"`
	StockQuantity int     `json:"stockQuantity" binding:"gte=0"`
	ImageURL      string  `json:"imageUrl"`
	Category      string  `json:"category"`
}

type updateStockRequest struct {
	StockQuantity *int `json:"stockQuantity" binding:"required,gte=0"`
}

func GetProducts(products *store.Products) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		list, err := products.List(ctx)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, list)
	}
}

func CreateProduct(products *store.Products) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/products"
		defer handlePanic(c, route)

		var req createProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		product := &models.Product{
			Sku:           strings.TrimSpace(req.Sku),
			Name:          strings.TrimSpace(req.Name),
			Description:   req.Description,
			Price:         req.Price,
			StockQuantity: req.StockQuantity,
			ImageURL:      req.ImageURL,
			Category:      req.Category,
			IsActive:      true,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := products.Create(ctx, product); err != nil {
			log.Println("[PRODUCT] [ERROR] create failed:", err)
			respondWithError(c, http.StatusConflict, route, "sku already exists")
			return
		}

		c.JSON(http.StatusCreated, product)
	}
}

// UpdateStock replaces a product's total stock. A value below the currently
// reserved quantity is rejected so in-flight checkouts keep their holds.
func UpdateStock(products *store.Products) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/api/products/:id/stock"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req updateStockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := products.SetStock(ctx, productID, *req.StockQuantity); err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "stock updated"})
	}
}
