package processor

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the lowercase hex HMAC-SHA256 of payload under secret
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// CallbackPayload is the string the processor signs for a checkout callback
func CallbackPayload(orderID, paymentID string) []byte {
	return []byte(orderID + "|" + paymentID)
}

// VerifyCallback checks the signature the hosted checkout hands to the browser.
// The comparison is constant time and byte exact, hex case included.
func VerifyCallback(secret, orderID, paymentID, signature string) bool {
	return verify(secret, CallbackPayload(orderID, paymentID), signature)
}

// VerifyWebhook checks the signature over the raw webhook body
func VerifyWebhook(secret string, rawBody []byte, signature string) bool {
	return verify(secret, rawBody, signature)
}

func verify(secret string, payload []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := Sign(secret, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}
