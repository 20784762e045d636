package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/jeffleon2/draftea-checkout-service/internal/lemonsqueezy"
	"github.com/jeffleon2/draftea-checkout-service/internal/models"
)

type ErrorKind string

const (
	PaymentDeclined ErrorKind = "PAYMENT_DECLINED"
	InvalidAmount   ErrorKind = "INVALID_AMOUNT"
	NetworkError    ErrorKind = "NETWORK_ERROR"
	APIError        ErrorKind = "API_ERROR"
	UserCancelled   ErrorKind = "USER_CANCELLED"
)

// PaymentError is the processor-facing taxonomy surfaced to checkout callers.
type PaymentError struct {
	Kind ErrorKind
	Err  error
}

func (e *PaymentError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// classifyProcessorError maps a checkout failure into the processor taxonomy. Typed errors are
// inspected first; message matching only applies to errors that carry no structure.
func classifyProcessorError(err error) *PaymentError {
	var perr *PaymentError
	if errors.As(err, &perr) {
		return perr
	}

	if errors.Is(err, context.Canceled) {
		return &PaymentError{Kind: UserCancelled, Err: &models.AppError{
			Type:      models.ErrorClient,
			Severity:  models.SeverityPtr(models.SeverityLow),
			Retryable: models.BoolPtr(false),
			Err:       err,
		}}
	}

	var apiErr *lemonsqueezy.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusPaymentRequired:
			return declined(err)
		case apiErr.StatusCode == http.StatusUnprocessableEntity && mentionsAmount(apiErr.Detail):
			return invalidAmount(err)
		default:
			return &PaymentError{Kind: APIError, Err: err}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &PaymentError{Kind: NetworkError, Err: err}
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "fetch") || strings.Contains(lower, "network"):
		return &PaymentError{Kind: NetworkError, Err: err}
	case strings.Contains(lower, "http"):
		return &PaymentError{Kind: APIError, Err: err}
	case mentionsAmount(lower):
		return invalidAmount(err)
	case strings.Contains(lower, "declined"):
		return declined(err)
	default:
		return &PaymentError{Kind: APIError, Err: err}
	}
}

func mentionsAmount(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "amount") || strings.Contains(s, "price")
}

func declined(err error) *PaymentError {
	return &PaymentError{Kind: PaymentDeclined, Err: &models.AppError{
		Type:      models.ErrorPayment,
		Severity:  models.SeverityPtr(models.SeverityHigh),
		Code:      string(PaymentDeclined),
		Retryable: models.BoolPtr(false),
		Err:       err,
	}}
}

func invalidAmount(err error) *PaymentError {
	return &PaymentError{Kind: InvalidAmount, Err: &models.AppError{
		Type:      models.ErrorValidation,
		Severity:  models.SeverityPtr(models.SeverityMedium),
		Code:      string(InvalidAmount),
		Retryable: models.BoolPtr(false),
		Err:       err,
	}}
}
