package app

import (
	"context"
	"fmt"

	"github.com/jeffleon2/draftea-checkout-service/config"
	"github.com/jeffleon2/draftea-checkout-service/internal/classifier"
	"github.com/jeffleon2/draftea-checkout-service/internal/gateway"
	"github.com/jeffleon2/draftea-checkout-service/internal/ledger"
	"github.com/jeffleon2/draftea-checkout-service/internal/lemonsqueezy"
	"github.com/jeffleon2/draftea-checkout-service/internal/metrics"
	"github.com/jeffleon2/draftea-checkout-service/internal/models"
	"github.com/jeffleon2/draftea-checkout-service/internal/repository"
	"github.com/jeffleon2/draftea-checkout-service/internal/retry"
	"github.com/jeffleon2/draftea-checkout-service/internal/security"
	"github.com/jeffleon2/draftea-checkout-service/internal/webhook"
)

// Services is the checkout core shared by the HTTP service and the Lambda entrypoint.
type Services struct {
	Guard    *security.Guard
	Errors   *classifier.Classifier
	Ledger   *ledger.Ledger
	Webhooks *webhook.Processor
}

// NewServices builds the guard, classifier, ledger and webhook processor over store.
// pub may be nil, in which case error reports and analytics are not published.
func NewServices(cfg *config.Config, store repository.Store, pub classifier.Publisher) (*Services, error) {
	withMetrics := cfg.APP.MetricsOn
	if withMetrics {
		metrics.RegisterMetrics()
	}

	guardOpts := []security.Option{
		security.WithRateLimit(security.RateLimitConfig{
			MaxAttempts:   cfg.Security.MaxAttempts,
			Window:        cfg.Security.Window,
			BlockDuration: cfg.Security.BlockDuration,
		}),
		security.WithSessionTTL(cfg.Security.SessionTTL),
		security.WithTokenSecret(cfg.Security.TokenSecret),
		security.WithAccessToken(cfg.Security.AdminAccessToken),
		security.WithSuspiciousLogLimit(cfg.Security.SuspiciousLogLimit),
	}
	errorOpts := []classifier.Option{classifier.WithReportTimeout(cfg.Kafka.ReportTimeout)}
	ledgerOpts := []ledger.Option{ledger.WithMaxEntries(cfg.Ledger.MaxEntries)}

	verifier, err := webhook.NewVerifier(cfg.Webhook.SignatureMode, cfg.Webhook.Secret)
	if err != nil {
		return nil, err
	}
	var webhookOpts []webhook.Option

	if pub != nil {
		errorOpts = append(errorOpts, classifier.WithReporter(classifier.NewPublisherReporter(pub)))
		webhookOpts = append(webhookOpts, webhook.WithAnalytics(pub))
	}
	if cfg.Webhook.Deduplicate {
		webhookOpts = append(webhookOpts, webhook.WithEventStore(store))
	}
	if withMetrics {
		guardOpts = append(guardOpts, security.WithBlockObserver(metrics.ObserveBlock))
		errorOpts = append(errorOpts, classifier.WithObserver(metrics.ObserveError))
		ledgerOpts = append(ledgerOpts, ledger.WithSizeObserver(metrics.ObserveLedgerSize))
		webhookOpts = append(webhookOpts,
			webhook.WithEventObserver(metrics.ObserveWebhook),
			webhook.WithPaymentCompleted(func(_ context.Context, tx models.Transaction) { metrics.ObserveCompleted(tx) }),
		)
	}

	l := ledger.NewLedger(NewLedgerStore(store, cfg.Ledger), ledgerOpts...)
	return &Services{
		Guard:    security.NewGuard(guardOpts...),
		Errors:   classifier.NewClassifier(errorOpts...),
		Ledger:   l,
		Webhooks: webhook.NewProcessor(verifier, l, webhookOpts...),
	}, nil
}

// NewGateway wires the payment gateway to the Lemon Squeezy client.
func (s *Services) NewGateway(cfg *config.Config) (*gateway.PaymentGateway, error) {
	client, err := lemonsqueezy.NewClient(lemonsqueezy.Config{
		BaseURL:   cfg.Processor.BaseURL,
		APIKey:    cfg.Processor.APIKey,
		StoreID:   cfg.Processor.StoreID,
		VariantID: cfg.Processor.VariantID,
		Timeout:   cfg.Processor.Timeout,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("configure processor client: %w", err)
	}

	var retryOpts []retry.Option
	opts := []gateway.Option{gateway.WithProduct(cfg.APP.SiteName, cfg.APP.RedirectURL)}
	if cfg.APP.MetricsOn {
		retryOpts = append(retryOpts, retry.WithRetryObserver(metrics.ObserveRetry))
		opts = append(opts, gateway.WithResultObserver(metrics.ObservePayment))
	}
	if cfg.Retry.MaxRetries > 0 {
		opts = append(opts, gateway.WithRetry(retry.Policy{
			MaxRetries: cfg.Retry.MaxRetries,
			BaseDelay:  cfg.Retry.BaseDelay,
		}, retryOpts...))
	}

	return gateway.NewPaymentGateway(client, s.Ledger, s.Guard, s.Errors, opts...), nil
}

func (s *Services) Close() {
	s.Errors.Close()
	s.Guard.Close()
}
