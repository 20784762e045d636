package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jeffleon2/draftea-checkout-service/internal/ledger"
	"github.com/jeffleon2/draftea-checkout-service/internal/lemonsqueezy"
	"github.com/jeffleon2/draftea-checkout-service/internal/models"
	"github.com/jeffleon2/draftea-checkout-service/internal/repository"
	"github.com/sirupsen/logrus"
)

const (
	orderPrefix        = "ls-order-"
	subscriptionPrefix = "ls-sub-"
	paymentMethod      = "lemonsqueezy"
)

// Ledger is the slice of the transaction ledger webhook reconciliation needs.
type Ledger interface {
	LogTransaction(ctx context.Context, tx models.Transaction)
	GetTransactionByID(ctx context.Context, id string) (models.Transaction, error)
	FindByProcessorRef(ctx context.Context, ref string) (models.Transaction, bool)
	UpdateTransactionStatus(ctx context.Context, id string, status models.TransactionStatus, completedAt *time.Time) bool
	OverrideTransactionStatus(ctx context.Context, id string, status models.TransactionStatus, reason string) error
	AttachReferences(ctx context.Context, id string, refs ledger.References) bool
}

type Publisher interface {
	Publish(ctx context.Context, topic string, message interface{}) error
}

type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type TransactionCallback func(ctx context.Context, tx models.Transaction)

// Processor verifies processor callbacks and folds them into the ledger.
type Processor struct {
	verifier    Verifier
	ledger      Ledger
	publisher   Publisher
	events      repository.EventStore
	onCompleted TransactionCallback
	onRefunded  TransactionCallback
	observe     func(event, result string)
	now         func() time.Time
}

type Option func(*Processor)

// WithAnalytics publishes purchase and refund events. Publish failures are logged only.
func WithAnalytics(p Publisher) Option {
	return func(w *Processor) { w.publisher = p }
}

// WithEventStore drops deliveries whose dedup key was already processed.
func WithEventStore(s repository.EventStore) Option {
	return func(w *Processor) { w.events = s }
}

func WithPaymentCompleted(fn TransactionCallback) Option {
	return func(w *Processor) { w.onCompleted = fn }
}

func WithPaymentRefunded(fn TransactionCallback) Option {
	return func(w *Processor) { w.onRefunded = fn }
}

// WithEventObserver is called once per delivery with the event name and an outcome label.
func WithEventObserver(fn func(event, result string)) Option {
	return func(w *Processor) { w.observe = fn }
}

func WithClock(now func() time.Time) Option {
	return func(w *Processor) { w.now = now }
}

func NewProcessor(verifier Verifier, l Ledger, opts ...Option) *Processor {
	w := &Processor{
		verifier: verifier,
		ledger:   l,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// HandleWebhook verifies signature before touching payload, then dispatches on the event name.
// Anything past verification and parsing reports success so the processor stops redelivering.
func (w *Processor) HandleWebhook(ctx context.Context, payload []byte, signature string) Result {
	if !w.verifier.Verify(payload, signature) {
		logrus.Warn("webhook signature verification failed")
		w.record("unknown", "rejected")
		return Result{Success: false, Message: "Invalid signature"}
	}

	var evt models.WebhookEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		logrus.Errorf("failed to parse webhook payload: %v", err)
		w.record("unknown", "malformed")
		return Result{Success: false, Message: "Invalid payload"}
	}
	name := evt.EventName()
	if name == "" {
		w.record("unknown", "malformed")
		return Result{Success: false, Message: "Missing event name"}
	}

	if w.events != nil {
		first, err := w.events.MarkProcessed(ctx, evt.DedupKey())
		switch {
		case err != nil:
			logrus.WithField("event", name).Errorf("webhook dedup check failed, processing anyway: %v", err)
		case !first:
			logrus.WithFields(logrus.Fields{"event": name, "key": evt.DedupKey()}).Info("duplicate webhook ignored")
			w.record(name, "duplicate")
			return Result{Success: true, Message: "Duplicate event ignored"}
		}
	}

	var result Result
	switch name {
	case models.EventOrderCreated:
		result = w.orderCreated(ctx, evt)
	case models.EventOrderRefunded:
		result = w.orderRefunded(ctx, evt)
	case models.EventSubscriptionCreated:
		result = w.subscriptionCreated(ctx, evt)
	case models.EventSubscriptionUpdated, models.EventSubscriptionCancelled:
		logrus.WithFields(logrus.Fields{"event": name, "subscription_id": evt.Data.ID, "status": evt.Data.Attributes.Status}).
			Info("subscription change received")
		result = Result{Success: true, Message: "Subscription event logged"}
	default:
		logrus.WithField("event", name).Warn("unhandled webhook event")
		w.record(name, "ignored")
		return Result{Success: true, Message: "Event ignored"}
	}
	w.record(name, "processed")
	return result
}

func (w *Processor) orderCreated(ctx context.Context, evt models.WebhookEvent) Result {
	now := w.now()
	refs := ledger.References{ReceiptURL: evt.Data.Attributes.ReceiptURL, ProcessorRef: evt.Data.ID}

	if id := evt.CorrelationID(); id != "" {
		if tx, err := w.ledger.GetTransactionByID(ctx, id); err == nil {
			if !w.complete(ctx, tx, evt.Data.ID, now) {
				return Result{Success: true, Message: "Order already settled"}
			}
			w.ledger.AttachReferences(ctx, id, refs)
			if updated, err := w.ledger.GetTransactionByID(ctx, id); err == nil {
				tx = updated
			}
			w.paymentCompleted(ctx, tx)
			return Result{Success: true, Message: "Payment completed"}
		}
		logrus.WithField("transaction_id", id).Warn("order correlation id matches no transaction, creating one")
	}

	tx := w.synthesize(orderPrefix+evt.Data.ID, evt, now)
	w.ledger.LogTransaction(ctx, tx)
	w.paymentCompleted(ctx, tx)
	return Result{Success: true, Message: "Payment recorded"}
}

// complete moves tx to Completed. A Failed checkout the processor later confirmed goes through
// the audited override instead of the regular state machine.
func (w *Processor) complete(ctx context.Context, tx models.Transaction, orderID string, at time.Time) bool {
	if w.ledger.UpdateTransactionStatus(ctx, tx.ID, models.StatusCompleted, &at) {
		return true
	}
	if tx.Status != models.StatusFailed {
		logrus.WithFields(logrus.Fields{"transaction_id": tx.ID, "status": tx.Status}).
			Warn("order_created for transaction that cannot complete")
		return false
	}
	reason := fmt.Sprintf("processor confirmed order %s after checkout failure", orderID)
	if err := w.ledger.OverrideTransactionStatus(ctx, tx.ID, models.StatusCompleted, reason); err != nil {
		logrus.WithField("transaction_id", tx.ID).Errorf("failed to override transaction status: %v", err)
		return false
	}
	return true
}

func (w *Processor) orderRefunded(ctx context.Context, evt models.WebhookEvent) Result {
	tx, ok := w.findOrder(ctx, evt)
	if !ok {
		logrus.WithField("order_id", evt.Data.ID).Warn("refund for unknown order")
		return Result{Success: true, Message: "Refund for unknown order ignored"}
	}

	now := w.now()
	if !w.ledger.UpdateTransactionStatus(ctx, tx.ID, models.StatusRefunded, &now) {
		// Refunds apply from any status; ones the state machine rejects are recorded as overrides.
		reason := fmt.Sprintf("processor refunded order %s", evt.Data.ID)
		if err := w.ledger.OverrideTransactionStatus(ctx, tx.ID, models.StatusRefunded, reason); err != nil {
			logrus.WithField("transaction_id", tx.ID).Errorf("failed to override transaction status: %v", err)
			return Result{Success: true, Message: "Refund not applied"}
		}
	}
	w.ledger.AttachReferences(ctx, tx.ID, ledger.References{RefundID: evt.Data.ID})
	if updated, err := w.ledger.GetTransactionByID(ctx, tx.ID); err == nil {
		tx = updated
	}

	w.publish(ctx, models.AnalyticsRefund, tx)
	if w.onRefunded != nil {
		w.onRefunded(ctx, tx)
	}
	return Result{Success: true, Message: "Payment refunded"}
}

// findOrder tries the correlation id, then the synthesized order id, then the stored processor reference.
func (w *Processor) findOrder(ctx context.Context, evt models.WebhookEvent) (models.Transaction, bool) {
	for _, id := range []string{evt.CorrelationID(), orderPrefix + evt.Data.ID} {
		if id == "" || id == orderPrefix {
			continue
		}
		if tx, err := w.ledger.GetTransactionByID(ctx, id); err == nil {
			return tx, true
		}
	}
	return w.ledger.FindByProcessorRef(ctx, evt.Data.ID)
}

func (w *Processor) subscriptionCreated(ctx context.Context, evt models.WebhookEvent) Result {
	tx := w.synthesize(subscriptionPrefix+evt.Data.ID, evt, w.now())
	w.ledger.LogTransaction(ctx, tx)
	w.paymentCompleted(ctx, tx)
	return Result{Success: true, Message: "Subscription recorded"}
}

func (w *Processor) synthesize(id string, evt models.WebhookEvent, now time.Time) models.Transaction {
	attrs := evt.Data.Attributes
	tx := models.Transaction{
		ID:              id,
		Amount:          lemonsqueezy.FromMinorUnits(attrs.Total),
		Currency:        models.Currency(strings.ToUpper(attrs.Currency)),
		Status:          models.StatusCompleted,
		CreatedAt:       now,
		CompletedAt:     &now,
		PaymentMethodID: paymentMethod,
		ReceiptURL:      attrs.ReceiptURL,
		ProcessorRef:    evt.Data.ID,
	}
	if attrs.CustomerEmail != "" || attrs.CustomerName != "" {
		tx.CustomerInfo = &models.CustomerInfo{Email: attrs.CustomerEmail, Name: attrs.CustomerName}
	}
	return tx
}

func (w *Processor) paymentCompleted(ctx context.Context, tx models.Transaction) {
	logrus.WithFields(logrus.Fields{"transaction_id": tx.ID, "amount": tx.Amount, "currency": tx.Currency}).
		Info("payment completed")
	w.publish(ctx, models.AnalyticsPurchase, tx)
	if w.onCompleted != nil {
		w.onCompleted(ctx, tx)
	}
}

func (w *Processor) publish(ctx context.Context, name string, tx models.Transaction) {
	if w.publisher == nil {
		return
	}
	evt := models.AnalyticsEvent{
		Name:          name,
		TransactionID: tx.ID,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		OccurredAt:    w.now(),
	}
	if err := w.publisher.Publish(ctx, models.AnalyticsTopic, evt); err != nil {
		logrus.WithField("transaction_id", tx.ID).Errorf("failed to publish analytics event: %v", err)
	}
}

func (w *Processor) record(event, result string) {
	if w.observe != nil {
		w.observe(event, result)
	}
}
