package models

// FormData is what the checkout form submits to the gateway.
type FormData struct {
	Amount        float64
	Currency      Currency
	CustomerEmail string
	CustomerName  string
	CustomerID    string
	Description   string
	// Identifier keys rate limiting; falls back to the email when empty.
	Identifier string
}

func (f FormData) RateLimitKey() string {
	if f.Identifier != "" {
		return f.Identifier
	}
	if f.CustomerEmail != "" {
		return f.CustomerEmail
	}
	return "anonymous"
}

func (f FormData) CustomerInfo() *CustomerInfo {
	if f.CustomerEmail == "" && f.CustomerName == "" && f.CustomerID == "" {
		return nil
	}
	return &CustomerInfo{Email: f.CustomerEmail, Name: f.CustomerName, ID: f.CustomerID}
}
