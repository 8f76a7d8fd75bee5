package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestInitializeTransaction(t *testing.T) {
	var gotAuth string
	var gotBody initRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transaction/initialize" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": true,
			"message": "Authorization URL created",
			"data": {
				"authorization_url": "https://checkout.paystack.com/h9vkl0d92nd",
				"access_code": "h9vkl0d92nd",
				"reference": "order-abc"
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_xyz", 5*time.Second)
	result, err := client.InitializeTransaction(context.Background(), "buyer@example.com", 4523, "order-abc")
	if err != nil {
		t.Fatalf("InitializeTransaction returned error: %v", err)
	}

	if gotAuth != "Bearer sk_test_xyz" {
		t.Fatalf("expected bearer auth header, got %q", gotAuth)
	}
	if gotBody.Email != "buyer@example.com" || gotBody.Amount != 4523 || gotBody.Reference != "order-abc" {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
	if result.AuthorizationURL != "https://checkout.paystack.com/h9vkl0d92nd" {
		t.Fatalf("unexpected authorization url: %s", result.AuthorizationURL)
	}
	if result.Reference != "order-abc" {
		t.Fatalf("unexpected reference: %s", result.Reference)
	}
}

func TestInitializeTransactionServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_xyz", 5*time.Second)
	_, err := client.InitializeTransaction(context.Background(), "buyer@example.com", 100, "ref")
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
}

func TestInitializeTransactionAPIRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": false, "message": "Invalid key"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_bad_key", 5*time.Second)
	_, err := client.InitializeTransaction(context.Background(), "buyer@example.com", 100, "ref")
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
}

func TestInitializeTransactionNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := NewClient(server.URL, "sk_test_xyz", time.Second)
	_, err := client.InitializeTransaction(context.Background(), "buyer@example.com", 100, "ref")
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
}
