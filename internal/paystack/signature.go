package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
)

// ErrInvalidSignature means the webhook signature did not match the payload.
// The payload must be discarded without any state change.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// VerifySignature checks the x-paystack-signature header against an
// HMAC-SHA512 of the exact raw request bytes. The comparison is
// constant-time so the check leaks nothing about the expected digest.
func VerifySignature(secret string, body []byte, signature string) error {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
