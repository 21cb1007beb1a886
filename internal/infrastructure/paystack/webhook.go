package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/payment"
)

var ErrMalformedWebhook = errors.New("paystack: malformed webhook")

// Sign returns the hex HMAC-SHA512 of payload under secret, as sent in the
// X-Paystack-Signature header.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) VerifySignature(payload []byte, signature string) bool {
	if c.secret == "" || signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, []byte(c.secret))
	mac.Write(payload)
	return hmac.Equal(got, mac.Sum(nil))
}

type webhookBody struct {
	Event string `json:"event"`
	Data  struct {
		ID              json.Number `json:"id"`
		Reference       string      `json:"reference"`
		Amount          int64       `json:"amount"`
		GatewayResponse string      `json:"gateway_response"`
		Message         string      `json:"message"`
	} `json:"data"`
}

func (c *Client) ParseWebhook(payload []byte) (*payment.WebhookEvent, error) {
	var body webhookBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWebhook, err)
	}
	if body.Event == "" {
		return nil, fmt.Errorf("%w: missing event", ErrMalformedWebhook)
	}
	msg := body.Data.GatewayResponse
	if msg == "" {
		msg = body.Data.Message
	}
	return &payment.WebhookEvent{
		Type:          payment.WebhookEventType(body.Event),
		Reference:     body.Data.Reference,
		TransactionID: body.Data.ID.String(),
		Amount:        body.Data.Amount,
		Message:       msg,
	}, nil
}
