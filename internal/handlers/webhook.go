package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"backend/internal/payments"
	"backend/internal/paystack"
	"backend/internal/store"
)

// PaystackWebhook receives asynchronous transaction callbacks. The raw body
// is handed to the reconciler untouched because the signature covers the
// exact bytes. Processed deliveries always get a 200, duplicates included,
// so the gateway stops retrying; only a bad signature, an unparseable body
// or an unknown reference is rejected.
func PaystackWebhook(reconciler *payments.Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /webhooks/paystack"
		defer handlePanic(c, route)

		body, err := c.GetRawData()
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "unreadable body")
			return
		}

		signature := c.GetHeader("x-paystack-signature")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		err = reconciler.HandleWebhook(ctx, signature, body)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		case errors.Is(err, paystack.ErrInvalidSignature):
			respondWithError(c, http.StatusUnauthorized, route, "invalid signature")
		case errors.Is(err, payments.ErrInvalidPayload):
			respondWithError(c, http.StatusBadRequest, route, "invalid payload")
		case errors.Is(err, store.ErrNotFound):
			respondWithError(c, http.StatusNotFound, route, "unknown reference")
		default:
			respondServiceError(c, route, err)
		}
	}
}
