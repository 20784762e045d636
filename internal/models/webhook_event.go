package models

const (
	EventOrderCreated          = "order_created"
	EventOrderRefunded         = "order_refunded"
	EventSubscriptionCreated   = "subscription_created"
	EventSubscriptionUpdated   = "subscription_updated"
	EventSubscriptionCancelled = "subscription_cancelled"

	// CorrelationKey is the custom data field echoed back by the processor.
	CorrelationKey = "transaction_id"
)

type WebhookMeta struct {
	EventName  string         `json:"event_name"`
	WebhookID  string         `json:"webhook_id,omitempty"`
	CustomData map[string]any `json:"custom_data,omitempty"`
}

type WebhookAttributes struct {
	Status        string `json:"status"`
	Total         int64  `json:"total"`
	Currency      string `json:"currency"`
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name,omitempty"`
	ReceiptURL    string `json:"receipt_url,omitempty"`
}

type WebhookData struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Attributes WebhookAttributes `json:"attributes"`
}

type WebhookEvent struct {
	Meta WebhookMeta `json:"meta"`
	Data WebhookData `json:"data"`
}

func (e WebhookEvent) EventName() string {
	return e.Meta.EventName
}

// CorrelationID returns the transaction id the checkout embedded in custom data, if any.
func (e WebhookEvent) CorrelationID() string {
	if e.Meta.CustomData == nil {
		return ""
	}
	id, _ := e.Meta.CustomData[CorrelationKey].(string)
	return id
}

// DedupKey identifies a delivery for idempotency purposes.
func (e WebhookEvent) DedupKey() string {
	if e.Meta.WebhookID != "" {
		return e.Meta.WebhookID
	}
	return e.Meta.EventName + ":" + e.Data.ID
}
