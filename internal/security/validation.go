package security

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/jeffleon2/draftea-checkout-service/internal/models"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"

	MaxInputLength = 1000

	highAmountThreshold   = 10000
	mediumAmountThreshold = 1000
	roundAmountFloor      = 5000
)

var riskRank = map[RiskLevel]int{RiskLow: 0, RiskMedium: 1, RiskHigh: 2}

type AmountValidation struct {
	Valid   bool      `json:"valid"`
	Risk    RiskLevel `json:"risk"`
	Reasons []string  `json:"reasons"`
}

func (v *AmountValidation) raise(level RiskLevel, reason string) {
	if riskRank[level] > riskRank[v.Risk] {
		v.Risk = level
	}
	v.Reasons = append(v.Reasons, reason)
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

// SanitizeInput escapes HTML special characters, trims and truncates to MaxInputLength runes.
// It is not idempotent: escaping twice re-encodes the ampersands, so apply it once at the boundary.
func SanitizeInput(s string) string {
	out := strings.TrimSpace(htmlEscaper.Replace(s))
	if utf8.RuneCountInString(out) <= MaxInputLength {
		return out
	}
	return string([]rune(out)[:MaxInputLength])
}

// ValidatePaymentAmount scores the amount and currency. Only high risk makes it invalid.
func ValidatePaymentAmount(amount float64, currency models.Currency) AmountValidation {
	v := AmountValidation{Risk: RiskLow, Reasons: []string{}}

	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		v.raise(RiskHigh, "amount must be a positive number")
		return v
	}

	switch {
	case amount > highAmountThreshold:
		v.raise(RiskHigh, "amount exceeds 10000")
	case amount > mediumAmountThreshold:
		v.raise(RiskMedium, "amount exceeds 1000")
	}
	if amount >= roundAmountFloor && math.Mod(amount, 1000) == 0 {
		v.raise(RiskMedium, "suspiciously round amount")
	}
	if amount < 1 {
		v.raise(RiskMedium, "amount below 1, possible test transaction")
	}
	if !currency.IsValid() {
		v.raise(RiskHigh, "unsupported currency: "+string(currency))
	}

	v.Valid = v.Risk != RiskHigh
	return v
}

const cspHeader = "default-src 'self'; " +
	"script-src 'self' https://app.lemonsqueezy.com https://assets.lemonsqueezy.com; " +
	"style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' data: https:; " +
	"connect-src 'self' https://api.lemonsqueezy.com; " +
	"frame-src https://*.lemonsqueezy.com; " +
	"form-action 'self' https://*.lemonsqueezy.com; " +
	"object-src 'none'; base-uri 'self'"

// GetCSPHeader returns the fixed content security policy for pages that hand off to the processor.
func GetCSPHeader() string {
	return cspHeader
}
