package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jeffleon2/draftea-checkout-service/internal/models"
	"github.com/jeffleon2/draftea-checkout-service/internal/repository"
	"github.com/sirupsen/logrus"
)

const (
	StorageKey        = "checkout_transactions"
	DefaultMaxEntries = 1000
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidStatus       = errors.New("invalid transaction status")
	ErrReasonRequired      = errors.New("override reason is required")
)

// Store is the keyed blob persistence the ledger writes through.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Ledger keeps every transaction in one JSON array under StorageKey, most recent first.
// Each operation is a full read-modify-write of that array, serialized by mu.
// Separate processes sharing a store get last-write-wins at whole-array granularity.
type Ledger struct {
	mu         sync.Mutex
	store      Store
	maxEntries int
	now        func() time.Time
	onSize     func(size int)
}

type Option func(*Ledger)

func WithMaxEntries(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.maxEntries = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithSizeObserver is called with the entry count after every successful write.
func WithSizeObserver(fn func(size int)) Option {
	return func(l *Ledger) { l.onSize = fn }
}

func NewLedger(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:      store,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LogTransaction inserts tx at the head of the ledger. Failures are logged, never returned.
func (l *Ledger) LogTransaction(ctx context.Context, tx models.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = l.now()
	}
	if tx.Status == "" {
		tx.Status = models.StatusPending
	}

	txs := append([]models.Transaction{tx}, l.read(ctx)...)
	if len(txs) > l.maxEntries {
		txs = txs[:l.maxEntries]
	}
	if err := l.write(ctx, txs); err != nil {
		logrus.WithField("transaction_id", tx.ID).Errorf("failed to log transaction: %v", err)
	}
}

// GetTransactions returns the stored transactions matching filter, in stored order.
func (l *Ledger) GetTransactions(ctx context.Context, filter *Filter) []models.Transaction {
	l.mu.Lock()
	txs := l.read(ctx)
	l.mu.Unlock()

	if filter == nil {
		return txs
	}
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if filter.Matches(tx) {
			out = append(out, tx)
		}
	}
	return out
}

func (l *Ledger) GetTransactionByID(ctx context.Context, id string) (models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	txs := l.read(ctx)
	if i := indexOf(txs, id); i >= 0 {
		return txs[i], nil
	}
	return models.Transaction{}, ErrTransactionNotFound
}

// UpdateTransactionStatus moves the first transaction with id to status along the regular
// state machine. completedAt defaults to now for Completed and Refunded and is cleared otherwise.
// It returns false when nothing matches, the transition is not allowed or the write fails.
func (l *Ledger) UpdateTransactionStatus(ctx context.Context, id string, status models.TransactionStatus, completedAt *time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	txs := l.read(ctx)
	i := indexOf(txs, id)
	if i < 0 {
		return false
	}
	if !txs[i].Status.CanTransitionTo(status) {
		logrus.WithFields(logrus.Fields{
			"transaction_id": id,
			"from":           txs[i].Status,
			"to":             status,
		}).Warn("rejected transaction status transition")
		return false
	}

	l.applyStatus(&txs[i], status, completedAt)
	if err := l.write(ctx, txs); err != nil {
		logrus.WithField("transaction_id", id).Errorf("failed to update transaction status: %v", err)
		return false
	}
	return true
}

// OverrideTransactionStatus forces any transition, e.g. resurrecting a Failed payment the
// processor later confirmed, and appends the reason to the transaction's override trail.
func (l *Ledger) OverrideTransactionStatus(ctx context.Context, id string, status models.TransactionStatus, reason string) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	if reason == "" {
		return ErrReasonRequired
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	txs := l.read(ctx)
	i := indexOf(txs, id)
	if i < 0 {
		return ErrTransactionNotFound
	}

	txs[i].Overrides = append(txs[i].Overrides, models.StatusOverride{
		From:   txs[i].Status,
		To:     status,
		Reason: reason,
		At:     l.now(),
	})
	l.applyStatus(&txs[i], status, nil)

	if err := l.write(ctx, txs); err != nil {
		return fmt.Errorf("persist override: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"transaction_id": id,
		"to":             status,
		"reason":         reason,
	}).Warn("transaction status overridden")
	return nil
}

type References struct {
	ReceiptURL   string
	RefundID     string
	ProcessorRef string
}

// AttachReferences fills the non-empty reference fields on the transaction.
func (l *Ledger) AttachReferences(ctx context.Context, id string, refs References) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	txs := l.read(ctx)
	i := indexOf(txs, id)
	if i < 0 {
		return false
	}
	if refs.ReceiptURL != "" {
		txs[i].ReceiptURL = refs.ReceiptURL
	}
	if refs.RefundID != "" {
		txs[i].RefundID = refs.RefundID
	}
	if refs.ProcessorRef != "" {
		txs[i].ProcessorRef = refs.ProcessorRef
	}
	if err := l.write(ctx, txs); err != nil {
		logrus.WithField("transaction_id", id).Errorf("failed to attach references: %v", err)
		return false
	}
	return true
}

// FindByProcessorRef returns the first transaction whose processor reference is ref.
func (l *Ledger) FindByProcessorRef(ctx context.Context, ref string) (models.Transaction, bool) {
	if ref == "" {
		return models.Transaction{}, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, tx := range l.read(ctx) {
		if tx.ProcessorRef == ref {
			return tx, true
		}
	}
	return models.Transaction{}, false
}

// ClearAllTransactions irreversibly deletes the ledger. Callers must gate it behind admin auth.
func (l *Ledger) ClearAllTransactions(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	logrus.Warn("all transactions cleared")
	if l.onSize != nil {
		l.onSize(0)
	}
	return nil
}

func (l *Ledger) applyStatus(tx *models.Transaction, status models.TransactionStatus, completedAt *time.Time) {
	tx.Status = status
	if !status.SetsCompletedAt() {
		tx.CompletedAt = nil
		return
	}
	at := l.now()
	if completedAt != nil {
		at = *completedAt
	}
	tx.CompletedAt = &at
}

// read loads the ledger. Missing or unreadable data yields an empty list.
func (l *Ledger) read(ctx context.Context) []models.Transaction {
	raw, err := l.store.Load(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logrus.Errorf("failed to load transactions: %v", err)
		}
		return []models.Transaction{}
	}

	var txs []models.Transaction
	if err := json.Unmarshal(raw, &txs); err != nil {
		logrus.Errorf("stored transactions are malformed, ignoring them: %v", err)
		return []models.Transaction{}
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs
}

// write persists txs. When the store reports its quota is exhausted the ledger is trimmed
// to half its maximum size and the write is retried once.
func (l *Ledger) write(ctx context.Context, txs []models.Transaction) error {
	err := l.save(ctx, txs)
	if errors.Is(err, repository.ErrQuotaExceeded) {
		half := l.maxEntries / 2
		if len(txs) > half {
			txs = txs[:half]
		}
		logrus.Warnf("transaction store quota exceeded, trimming to %d entries", len(txs))
		err = l.save(ctx, txs)
	}
	if err != nil {
		return err
	}
	if l.onSize != nil {
		l.onSize(len(txs))
	}
	return nil
}

func (l *Ledger) save(ctx context.Context, txs []models.Transaction) error {
	raw, err := json.Marshal(txs)
	if err != nil {
		return fmt.Errorf("marshal transactions: %w", err)
	}
	return l.store.Save(ctx, StorageKey, raw)
}

func indexOf(txs []models.Transaction, id string) int {
	for i := range txs {
		if txs[i].ID == id {
			return i
		}
	}
	return -1
}
