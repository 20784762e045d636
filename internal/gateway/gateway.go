package gateway

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jeffleon2/draftea-checkout-service/internal/lemonsqueezy"
	"github.com/jeffleon2/draftea-checkout-service/internal/models"
	"github.com/jeffleon2/draftea-checkout-service/internal/retry"
	"github.com/jeffleon2/draftea-checkout-service/internal/security"
	"github.com/sirupsen/logrus"
)

const PaymentMethod = "lemonsqueezy"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type CheckoutCreator interface {
	CreateCheckout(ctx context.Context, in lemonsqueezy.CheckoutInput) (string, error)
}

type TransactionLog interface {
	LogTransaction(ctx context.Context, tx models.Transaction)
	UpdateTransactionStatus(ctx context.Context, id string, status models.TransactionStatus, completedAt *time.Time) bool
}

type Guard interface {
	IsBlocked(identifier string) bool
	CheckRateLimit(identifier string) security.RateLimitResult
	LogSuspiciousActivity(identifier, activity string, details map[string]any)
}

type ErrorHandler interface {
	HandleError(err any, meta map[string]any) models.ErrorRecord
}

// Navigator receives the checkout URL once the processor accepted the request.
type Navigator func(ctx context.Context, checkoutURL string)

type PaymentResult struct {
	Success       bool                `json:"success"`
	TransactionID string              `json:"transaction_id,omitempty"`
	CheckoutURL   string              `json:"checkout_url,omitempty"`
	Kind          ErrorKind           `json:"kind,omitempty"`
	Error         *models.ErrorRecord `json:"error,omitempty"`
}

type PaymentGateway struct {
	checkout    CheckoutCreator
	ledger      TransactionLog
	guard       Guard
	errors      ErrorHandler
	productName string
	redirectURL string
	retryPolicy *retry.Policy
	retryOpts   []retry.Option
	navigate    Navigator
	onResult    func(result string)
	now         func() time.Time
}

type Option func(*PaymentGateway)

func WithProduct(name, redirectURL string) Option {
	return func(g *PaymentGateway) {
		g.productName = name
		g.redirectURL = redirectURL
	}
}

// WithRetry wraps checkout creation in a fresh RetryOrchestrator per payment.
func WithRetry(policy retry.Policy, opts ...retry.Option) Option {
	return func(g *PaymentGateway) {
		g.retryPolicy = &policy
		g.retryOpts = opts
	}
}

func WithNavigator(fn Navigator) Option {
	return func(g *PaymentGateway) { g.navigate = fn }
}

// WithResultObserver is called with "success", "rejected" or "failed" for every payment.
func WithResultObserver(fn func(result string)) Option {
	return func(g *PaymentGateway) { g.onResult = fn }
}

func WithClock(now func() time.Time) Option {
	return func(g *PaymentGateway) { g.now = now }
}

func NewPaymentGateway(checkout CheckoutCreator, ledger TransactionLog, guard Guard, errs ErrorHandler, opts ...Option) *PaymentGateway {
	g := &PaymentGateway{
		checkout:    checkout,
		ledger:      ledger,
		guard:       guard,
		errors:      errs,
		productName: "Checkout",
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ProcessPayment validates the form, logs a Pending transaction and asks the processor for a
// checkout. Success is optimistic: the transaction only completes when the webhook arrives.
func (g *PaymentGateway) ProcessPayment(ctx context.Context, form models.FormData) PaymentResult {
	if kind, err := validateForm(form); err != nil {
		return g.reject(err, kind, map[string]any{"stage": "validation"})
	}
	form = sanitizeForm(form)

	key := form.RateLimitKey()
	if g.guard.IsBlocked(key) {
		return g.reject(&models.AppError{
			Type:      models.ErrorRateLimit,
			Message:   "identifier is temporarily blocked",
			Retryable: models.BoolPtr(false),
		}, "", map[string]any{"stage": "rate_limit", "identifier": key})
	}
	if limit := g.guard.CheckRateLimit(key); !limit.Allowed {
		wait := int(math.Ceil(limit.ResetTime.Sub(g.now()).Seconds()))
		return g.reject(&models.AppError{
			Type:       models.ErrorRateLimit,
			Message:    "too many payment attempts",
			Retryable:  models.BoolPtr(false),
			RetryAfter: models.IntPtr(max(wait, 0)),
		}, "", map[string]any{"stage": "rate_limit", "identifier": key})
	}

	risk := security.ValidatePaymentAmount(form.Amount, form.Currency)
	if !risk.Valid {
		g.guard.LogSuspiciousActivity(key, "high_risk_payment", map[string]any{
			"amount":   form.Amount,
			"currency": form.Currency,
			"reasons":  risk.Reasons,
		})
		return g.reject(&models.AppError{
			Type:    models.ErrorValidation,
			Message: strings.Join(risk.Reasons, "; "),
			Code:    string(InvalidAmount),
		}, InvalidAmount, map[string]any{"stage": "risk", "identifier": key})
	}

	id := g.newTransactionID()
	g.ledger.LogTransaction(ctx, models.Transaction{
		ID:              id,
		Amount:          form.Amount,
		Currency:        form.Currency,
		Status:          models.StatusPending,
		CreatedAt:       g.now(),
		PaymentMethodID: PaymentMethod,
		CustomerInfo:    form.CustomerInfo(),
	})

	meta := map[string]any{"transaction_id": id, "identifier": key}
	url, record, err := g.createCheckout(ctx, lemonsqueezy.CheckoutInput{
		TransactionID: id,
		Amount:        form.Amount,
		Currency:      string(form.Currency),
		CustomerEmail: form.CustomerEmail,
		CustomerName:  form.CustomerName,
		ProductName:   g.productName,
		Description:   form.Description,
		RedirectURL:   g.redirectURL,
	}, meta)
	if err != nil {
		return g.fail(ctx, id, key, err, record, meta)
	}

	logrus.WithFields(logrus.Fields{
		"transaction_id": id,
		"amount":         form.Amount,
		"currency":       form.Currency,
	}).Info("checkout created")
	if g.navigate != nil {
		g.navigate(ctx, url)
	}
	g.observe("success")
	return PaymentResult{Success: true, TransactionID: id, CheckoutURL: url}
}

// createCheckout returns the orchestrator's classification of a terminal failure when retries
// are enabled, so fail does not report it a second time.
func (g *PaymentGateway) createCheckout(ctx context.Context, in lemonsqueezy.CheckoutInput, meta map[string]any) (string, *models.ErrorRecord, error) {
	if g.retryPolicy == nil {
		url, err := g.checkout.CreateCheckout(ctx, in)
		return url, nil, err
	}
	opts := append([]retry.Option{retry.WithPolicy(*g.retryPolicy)}, g.retryOpts...)
	orchestrator := retry.New(g.errors, opts...)
	url, err := retry.Do(ctx, orchestrator, func(ctx context.Context) (string, error) {
		url, err := g.checkout.CreateCheckout(ctx, in)
		if err != nil {
			perr := classifyProcessorError(err)
			meta["kind"] = string(perr.Kind)
			return "", perr
		}
		return url, nil
	}, meta)
	if err != nil {
		if record, ok := orchestrator.LastRecord(); ok {
			return "", &record, err
		}
	}
	return url, nil, err
}

func (g *PaymentGateway) fail(ctx context.Context, id, key string, err error, record *models.ErrorRecord, meta map[string]any) PaymentResult {
	perr := classifyProcessorError(err)
	meta["kind"] = string(perr.Kind)

	if !g.ledger.UpdateTransactionStatus(ctx, id, models.StatusFailed, nil) {
		logrus.WithField("transaction_id", id).Warn("could not mark transaction failed")
	}
	if record == nil {
		classified := g.errors.HandleError(perr, meta)
		record = &classified
	}
	g.guard.LogSuspiciousActivity(key, "payment_failed", map[string]any{
		"transaction_id": id,
		"kind":           string(perr.Kind),
		"error":          perr.Error(),
	})
	g.observe("failed")
	return PaymentResult{Success: false, TransactionID: id, Kind: perr.Kind, Error: record}
}

// newTransactionID yields pending-<unix millis>-<8 hex>. The suffix keeps ids unique when two
// payments start in the same millisecond.
func (g *PaymentGateway) newTransactionID() string {
	return fmt.Sprintf("pending-%d-%s", g.now().UnixMilli(), uuid.NewString()[:8])
}

// validateForm returns the processor error kind alongside the failure; only amount
// problems map onto the taxonomy.
func validateForm(form models.FormData) (ErrorKind, error) {
	if math.IsNaN(form.Amount) || math.IsInf(form.Amount, 0) || form.Amount <= 0 {
		return InvalidAmount, models.NewValidationError("amount must be greater than zero")
	}
	if !form.Currency.IsValid() {
		return "", models.NewValidationError(fmt.Sprintf("unsupported currency %q", form.Currency))
	}
	if form.CustomerEmail != "" && !emailPattern.MatchString(form.CustomerEmail) {
		return "", models.NewValidationError("invalid email address")
	}
	return "", nil
}

func sanitizeForm(form models.FormData) models.FormData {
	form.CustomerEmail = security.SanitizeInput(form.CustomerEmail)
	form.CustomerName = security.SanitizeInput(form.CustomerName)
	form.CustomerID = security.SanitizeInput(form.CustomerID)
	form.Description = security.SanitizeInput(form.Description)
	form.Identifier = security.SanitizeInput(form.Identifier)
	return form
}
