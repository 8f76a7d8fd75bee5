package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"testing"
)

func validSignature(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignatureAccepts(t *testing.T) {
	body := []byte(`{"event":"charge.success"}`)
	if err := VerifySignature("secret", body, validSignature("secret", body)); err != nil {
		t.Fatalf("expected valid signature to pass, got %v", err)
	}
}

func TestVerifySignatureRejects(t *testing.T) {
	body := []byte(`{"event":"charge.success"}`)

	tests := []struct {
		name      string
		signature string
	}{
		{"empty", ""},
		{"garbage", "not-a-signature"},
		{"wrong secret", validSignature("other-secret", body)},
		{"signature of different body", validSignature("secret", []byte(`{}`))},
	}
	for _, tt := range tests {
		if err := VerifySignature("secret", body, tt.signature); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("%s: expected ErrInvalidSignature, got %v", tt.name, err)
		}
	}
}

func TestVerifySignatureCoversExactBytes(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"amount":100}}`)
	signature := validSignature("secret", body)

	// Re-serialized or whitespace-shifted bodies must fail: the check is
	// over the raw bytes, not the parsed document.
	reordered := []byte(`{"data":{"amount":100},"event":"charge.success"}`)
	if err := VerifySignature("secret", reordered, signature); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected reordered body to fail verification, got %v", err)
	}
}
