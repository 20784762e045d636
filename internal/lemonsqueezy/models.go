package lemonsqueezy

import "github.com/shopspring/decimal"

// CheckoutInput is what the gateway knows about a purchase when it asks for a checkout.
type CheckoutInput struct {
	TransactionID string
	Amount        float64
	Currency      string
	CustomerEmail string
	CustomerName  string
	ProductName   string
	Description   string
	RedirectURL   string
}

type checkoutRequest struct {
	Data checkoutRequestData `json:"data"`
}

type checkoutRequestData struct {
	Type          string                `json:"type"`
	Attributes    checkoutAttributes    `json:"attributes"`
	Relationships checkoutRelationships `json:"relationships"`
}

type checkoutAttributes struct {
	CustomPrice    int64          `json:"custom_price,omitempty"`
	CheckoutData   checkoutData   `json:"checkout_data"`
	ProductOptions productOptions `json:"product_options"`
}

type checkoutData struct {
	Email  string         `json:"email,omitempty"`
	Name   string         `json:"name,omitempty"`
	Custom map[string]any `json:"custom"`
}

type productOptions struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

type checkoutRelationships struct {
	Store   relationship  `json:"store"`
	Variant *relationship `json:"variant,omitempty"`
}

type relationship struct {
	Data resourceIdentifier `json:"data"`
}

type resourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type checkoutResponse struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			URL string `json:"url"`
		} `json:"attributes"`
	} `json:"data"`
}

type errorEnvelope struct {
	Errors []struct {
		Status string `json:"status"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
	Message string `json:"message"`
}

func (e errorEnvelope) detail() string {
	for _, item := range e.Errors {
		if item.Detail != "" {
			return item.Detail
		}
		if item.Title != "" {
			return item.Title
		}
	}
	return e.Message
}

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit amount such as 19.99 into cents, rounding half away from zero.
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits converts cents back into major units.
func FromMinorUnits(minor int64) float64 {
	return decimal.NewFromInt(minor).Div(hundred).InexactFloat64()
}
