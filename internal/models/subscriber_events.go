package models

// WebhookRelayMessage is a processor callback forwarded over Kafka by an edge receiver.
type WebhookRelayMessage struct {
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}
