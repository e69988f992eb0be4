package razorpay

import (
	"encoding/json"
	"fmt"
)

// WebhookEvent is the envelope of a gateway webhook delivery. Only the ids in
// it are used; amounts and notes are re-fetched from the API.
type WebhookEvent struct {
	Entity    string         `json:"entity"`
	AccountID string         `json:"account_id"`
	Event     string         `json:"event"`
	Contains  []string       `json:"contains"`
	Payload   WebhookPayload `json:"payload"`
	CreatedAt int64          `json:"created_at"`
}

type WebhookPayload struct {
	Payment *struct {
		Entity Payment `json:"entity"`
	} `json:"payment,omitempty"`
	Order *struct {
		Entity Order `json:"entity"`
	} `json:"order,omitempty"`
}

func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("parse webhook event: %w", err)
	}
	if ev.Event == "" {
		return nil, fmt.Errorf("parse webhook event: missing event type")
	}
	return &ev, nil
}

func (e *WebhookEvent) PaymentID() string {
	if e.Payload.Payment == nil {
		return ""
	}
	return e.Payload.Payment.Entity.ID
}

// OrderIDHint is the order id the webhook claims the payment belongs to.
func (e *WebhookEvent) OrderIDHint() string {
	if e.Payload.Payment != nil && e.Payload.Payment.Entity.OrderID != "" {
		return e.Payload.Payment.Entity.OrderID
	}
	if e.Payload.Order != nil {
		return e.Payload.Order.Entity.ID
	}
	return ""
}
