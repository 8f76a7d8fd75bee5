package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/checkout"
	"backend/internal/paystack"
	"backend/internal/store"
)

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		log.Printf("[%s] panic recovered: %v", route, r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	log.Printf("[%s] returning error %d: %s", route, status, message)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondServiceError maps the service error taxonomy onto HTTP statuses in
// one place: missing resources are 404, business-rule violations 400, stock
// conflicts 409, gateway trouble 502.
func respondServiceError(c *gin.Context, route string, err error) {
	var stockErr store.StockError
	switch {
	case errors.As(err, &stockErr):
		log.Printf("[%s] insufficient stock: %v", route, err)
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":     "insufficient stock",
			"productId": stockErr.ProductID.Hex(),
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case errors.Is(err, store.ErrInsufficientStock):
		respondWithError(c, http.StatusConflict, route, "insufficient stock")
	case errors.Is(err, checkout.ErrEmptyCart):
		respondWithError(c, http.StatusBadRequest, route, "cart is empty")
	case errors.Is(err, store.ErrNotFound):
		respondWithError(c, http.StatusNotFound, route, "not found")
	case errors.Is(err, paystack.ErrGatewayUnavailable):
		respondWithError(c, http.StatusBadGateway, route, "payment gateway unavailable")
	default:
		log.Printf("[%s] unexpected error: %v", route, err)
		respondWithError(c, http.StatusInternalServerError, route, "internal server error")
	}
}

// respondValidationError turns binding failures into field-level messages
// instead of gin's raw validator output.
func respondValidationError(c *gin.Context, route string, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		respondWithError(c, http.StatusBadRequest, route, "invalid request body")
		return
	}

	details := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		field := lowerCamel(fieldError.Field())
		switch fieldError.Tag() {
		case "required":
			details = append(details, fmt.Sprintf("%s is required", field))
		case "email":
			details = append(details, fmt.Sprintf("%s must be a valid email", field))
		case "min", "gt", "gte":
			details = append(details, fmt.Sprintf("%s is out of range", field))
		default:
			details = append(details, fmt.Sprintf("%s is invalid", field))
		}
	}

	log.Printf("[%s] validation failed: %s", route, strings.Join(details, "; "))
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":   "validation failed",
		"details": details,
	})
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	runes := []rune(field)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func userIDFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	value, ok := c.Get("userId")
	if !ok {
		return primitive.NilObjectID, false
	}
	userID, ok := value.(primitive.ObjectID)
	return userID, ok
}
