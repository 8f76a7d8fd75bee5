package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"backend/internal/payments"
)

func webhookRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	// Stores stay nil: the paths under test reject or ignore the payload
	// before any store is touched.
	reconciler := payments.NewReconciler(secret, nil, nil, nil, nil)
	r := gin.New()
	r.POST("/webhooks/paystack", PaystackWebhook(reconciler))
	return r
}

func TestPaystackWebhookRejectsBadSignature(t *testing.T) {
	r := webhookRouter("secret")

	body := []byte(`{"event":"charge.success","data":{"reference":"ref-1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(body))
	req.Header.Set("x-paystack-signature", "forged")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a forged signature, got %d", w.Code)
	}
}

func TestPaystackWebhookAcksUnknownEvent(t *testing.T) {
	r := webhookRouter("secret")

	body := []byte(`{"event":"subscription.create","data":{"reference":"ref-1"}}`)
	mac := hmac.New(sha512.New, []byte("secret"))
	mac.Write(body)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(body))
	req.Header.Set("x-paystack-signature", hex.EncodeToString(mac.Sum(nil)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for an ignored event, got %d", w.Code)
	}
}

func TestPaystackWebhookRejectsUnparseableBody(t *testing.T) {
	r := webhookRouter("secret")

	body := []byte(`{not json`)
	mac := hmac.New(sha512.New, []byte("secret"))
	mac.Write(body)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(body))
	req.Header.Set("x-paystack-signature", hex.EncodeToString(mac.Sum(nil)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unparseable body, got %d", w.Code)
	}
}
