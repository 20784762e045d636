package metrics

import (
	"sync"

	"github.com/jeffleon2/draftea-checkout-service/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	PaymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_payments_total",
			Help: "Checkout attempts by outcome",
		},
		[]string{"result"},
	)

	PaymentAmounts = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkout_payment_amounts",
			Help:    "Amounts of completed payments",
			Buckets: prometheus.LinearBuckets(0, 50, 20),
		},
		[]string{"currency"},
	)

	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_webhook_events_total",
			Help: "Processor webhook deliveries by event and outcome",
		},
		[]string{"event", "result"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_errors_total",
			Help: "Classified errors by type and severity",
		},
		[]string{"type", "severity"},
	)

	RateLimitBlocksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_rate_limit_blocks_total",
			Help: "Identifiers blocked for exceeding the rate limit",
		},
	)

	RetryAttemptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_retry_attempts_total",
			Help: "Retries scheduled by the retry orchestrator",
		},
	)

	LedgerSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "checkout_ledger_transactions",
			Help: "Transactions currently held in the ledger",
		},
	)
)

var registerOnce sync.Once

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			PaymentsTotal,
			PaymentAmounts,
			WebhookEventsTotal,
			ErrorsTotal,
			RateLimitBlocksTotal,
			RetryAttemptsTotal,
			LedgerSize,
		)
	})
}

func ObservePayment(result string) {
	PaymentsTotal.WithLabelValues(result).Inc()
}

func ObserveCompleted(tx models.Transaction) {
	PaymentAmounts.WithLabelValues(string(tx.Currency)).Observe(tx.Amount)
}

func ObserveWebhook(event, result string) {
	WebhookEventsTotal.WithLabelValues(event, result).Inc()
}

func ObserveError(record models.ErrorRecord) {
	ErrorsTotal.WithLabelValues(string(record.Type), record.Severity.String()).Inc()
}

func ObserveBlock(string) {
	RateLimitBlocksTotal.Inc()
}

func ObserveRetry(int, int, models.ErrorRecord) {
	RetryAttemptsTotal.Inc()
}

func ObserveLedgerSize(size int) {
	LedgerSize.Set(float64(size))
}
