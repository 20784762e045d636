package models

import (
	"fmt"
	"time"
)

type TransactionStatus string
type Currency string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
	StatusRefunded  TransactionStatus = "REFUNDED"

	CurrencyILS Currency = "ILS"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// SupportedCurrencies is the closed set accepted by checkout and risk checks.
var SupportedCurrencies = []Currency{CurrencyILS, CurrencyUSD, CurrencyEUR}

type CustomerInfo struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	ID    string `json:"id,omitempty"`
}

// StatusOverride records a transition forced outside the normal state machine.
type StatusOverride struct {
	From   TransactionStatus `json:"from"`
	To     TransactionStatus `json:"to"`
	Reason string            `json:"reason"`
	At     time.Time         `json:"at"`
}

type Transaction struct {
	ID              string            `json:"id"`
	Amount          float64           `json:"amount"`
	Currency        Currency          `json:"currency"`
	Status          TransactionStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	PaymentMethodID string            `json:"payment_method_id"`
	CustomerInfo    *CustomerInfo     `json:"customer_info,omitempty"`
	ReceiptURL      string            `json:"receipt_url,omitempty"`
	RefundID        string            `json:"refund_id,omitempty"`
	ProcessorRef    string            `json:"processor_ref,omitempty"`
	Overrides       []StatusOverride  `json:"overrides,omitempty"`
}

// CustomerKey groups transactions by the best available customer identity.
func (t Transaction) CustomerKey() string {
	if t.CustomerInfo != nil {
		if t.CustomerInfo.Email != "" {
			return t.CustomerInfo.Email
		}
		if t.CustomerInfo.ID != "" {
			return t.CustomerInfo.ID
		}
	}
	return "unknown"
}

func (t Transaction) CustomerEmail() string {
	if t.CustomerInfo == nil {
		return ""
	}
	return t.CustomerInfo.Email
}

func (t Transaction) CustomerName() string {
	if t.CustomerInfo == nil {
		return ""
	}
	return t.CustomerInfo.Name
}

func (t *Transaction) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("transaction id is required")
	}
	if t.Amount <= 0 {
		return fmt.Errorf("amount must be greater than zero")
	}
	if !t.Currency.IsValid() {
		return fmt.Errorf("invalid currency: %s", t.Currency)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", t.Status)
	}
	return nil
}

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyILS, CurrencyUSD, CurrencyEUR:
		return true
	default:
		return false
	}
}

func (s TransactionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusRefunded:
		return true
	default:
		return false
	}
}

// SetsCompletedAt reports whether a transaction in this status carries a completion time.
func (s TransactionStatus) SetsCompletedAt() bool {
	return s == StatusCompleted || s == StatusRefunded
}

// CanTransitionTo reports whether the regular state machine allows moving from s to next.
// Re-applying the current status is accepted so repeated deliveries are harmless.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusCompleted || next == StatusFailed
	case StatusCompleted:
		return next == StatusRefunded
	default:
		return false
	}
}
