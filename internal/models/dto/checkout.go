package dto

import (
	"strings"

	"github.com/jeffleon2/draftea-checkout-service/internal/models"
)

type Checkout struct {
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	CustomerEmail string  `json:"customer_email,omitempty"`
	CustomerName  string  `json:"customer_name,omitempty"`
	CustomerID    string  `json:"customer_id,omitempty"`
	Description   string  `json:"description,omitempty"`
	Identifier    string  `json:"identifier,omitempty"`
	CSRFToken     string  `json:"csrf_token,omitempty"`
	SessionToken  string  `json:"session_token,omitempty"`
}

func (c *Checkout) Sanitize() {
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	c.CustomerEmail = strings.TrimSpace(c.CustomerEmail)
	c.CustomerName = strings.TrimSpace(c.CustomerName)
	c.CustomerID = strings.TrimSpace(c.CustomerID)
	c.Identifier = strings.TrimSpace(c.Identifier)
}

func (c *Checkout) ToFormData() models.FormData {
	return models.FormData{
		Amount:        c.Amount,
		Currency:      models.Currency(c.Currency),
		CustomerEmail: c.CustomerEmail,
		CustomerName:  c.CustomerName,
		CustomerID:    c.CustomerID,
		Description:   c.Description,
		Identifier:    c.Identifier,
	}
}

type StatusOverride struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type CSRFRequest struct {
	SessionToken string `json:"session_token"`
}
