package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"backend/internal/checkout"
)

// InitializePayment converts the caller's cart into a PENDING order with
// reserved stock and returns the gateway URL to redirect the buyer to.
func InitializePayment(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payments/initialize"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		authorizationURL, err := svc.InitializePayment(ctx, userID)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		log.Println("[PAYMENT] [INFO] checkout initialized for user:", userID.Hex())
		c.JSON(http.StatusOK, gin.H{"authorizationUrl": authorizationURL})
	}
}
