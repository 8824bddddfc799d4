package cashfree

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
)

// Webhook header names.
const (
	HeaderWebhookTimestamp = "x-webhook-timestamp"
	HeaderWebhookSignature = "x-webhook-signature"
)

// WebhookTypePaymentSuccess is the event type for settled payments.
const WebhookTypePaymentSuccess = "PAYMENT_SUCCESS_WEBHOOK"

// WebhookPayload is the envelope of an inbound gateway notification.
type WebhookPayload struct {
	Type string `json:"type"`
	Data struct {
		Order struct {
			OrderID string `json:"order_id"`
		} `json:"order"`
	} `json:"data"`
}

// ParseWebhook decodes a raw webhook body.
func ParseWebhook(rawBody []byte) (*WebhookPayload, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// VerifySignature checks the gateway's webhook signature: base64 of
// HMAC-SHA256(timestamp + rawBody) keyed with the active mode's secret,
// compared in constant time.
func VerifySignature(secret, timestamp string, rawBody []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(rawBody)
	computed := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(computed), []byte(signature))
}
