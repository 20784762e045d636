package models

import "time"

const (
	ErrorReportTopic  = "checkout.errors"
	AnalyticsTopic    = "checkout.analytics"
	CheckoutDLQTopic  = "checkout.dlq"
	WebhookRelayTopic = "processor.webhooks"
	AnalyticsPurchase = "purchase"
	AnalyticsRefund   = "refund"
)

type ErrorReportEvent struct {
	Type       ErrorType      `json:"type"`
	Severity   Severity       `json:"severity"`
	Message    string         `json:"message"`
	Code       string         `json:"code,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
	Retryable  bool           `json:"retryable"`
	ReportedAt time.Time      `json:"reported_at"`
}

func NewErrorReportEvent(r ErrorRecord) ErrorReportEvent {
	return ErrorReportEvent{
		Type:       r.Type,
		Severity:   r.Severity,
		Message:    r.Message,
		Code:       r.Code,
		Context:    r.Context,
		Retryable:  r.Retryable,
		ReportedAt: r.Timestamp,
	}
}

type AnalyticsEvent struct {
	Name          string    `json:"name"`
	TransactionID string    `json:"transaction_id"`
	Amount        float64   `json:"amount"`
	Currency      Currency  `json:"currency"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type DLQMessage struct {
	OriginalTopic string    `json:"original_topic"`
	Key           string    `json:"key"`
	Value         string    `json:"value"`
	Timestamp     time.Time `json:"timestamp"`
	Attempts      int       `json:"attempts"`
}

func (e AnalyticsEvent) PartitionKey() string {
	return e.TransactionID
}

func (m DLQMessage) PartitionKey() string {
	return m.Key
}
