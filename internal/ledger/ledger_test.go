package ledger_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeffleon2/draftea-checkout-service/internal/ledger"
	"github.com/jeffleon2/draftea-checkout-service/internal/ledger/mocks"
	"github.com/jeffleon2/draftea-checkout-service/internal/models"
	"github.com/jeffleon2/draftea-checkout-service/internal/repository"
	"github.com/jeffleon2/draftea-checkout-service/internal/repository/boltdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *clock { return &clock{now: baseTime} }

func ptr[T any](v T) *T { return &v }

func newBoltStore(t *testing.T) *boltdb.Store {
	t.Helper()
	s, err := boltdb.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestLedger(t *testing.T, opts ...ledger.Option) (*ledger.Ledger, *clock) {
	t.Helper()
	c := newClock()
	opts = append([]ledger.Option{ledger.WithClock(c.Now)}, opts...)
	return ledger.NewLedger(newBoltStore(t), opts...), c
}

func pending(id string, amount float64) models.Transaction {
	return models.Transaction{
		ID:              id,
		Amount:          amount,
		Currency:        models.CurrencyILS,
		Status:          models.StatusPending,
		PaymentMethodID: "lemonsqueezy",
		CustomerInfo:    &models.CustomerInfo{Email: "buyer@example.com", Name: "Dana"},
	}
}

func TestLogTransaction_RoundTrip(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	tx := pending("pending-1", 19.99)
	tx.CreatedAt = baseTime.Add(-time.Minute)

	l.LogTransaction(ctx, tx)

	got, err := l.GetTransactionByID(ctx, "pending-1")
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
	assert.Equal(t, tx.Amount, got.Amount)
	assert.Equal(t, tx.Currency, got.Currency)
	assert.Equal(t, tx.CustomerInfo, got.CustomerInfo)
	assert.True(t, tx.CreatedAt.Equal(got.CreatedAt))
	assert.Nil(t, got.CompletedAt)

	_, err = l.GetTransactionByID(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
}

func TestLogTransaction_DefaultsAndOrdering(t *testing.T) {
	l, c := newTestLedger(t)
	ctx := context.Background()

	l.LogTransaction(ctx, models.Transaction{ID: "a", Amount: 1, Currency: models.CurrencyUSD})
	c.Advance(time.Second)
	l.LogTransaction(ctx, models.Transaction{ID: "b", Amount: 2, Currency: models.CurrencyUSD})

	txs := l.GetTransactions(ctx, nil)
	require.Len(t, txs, 2)
	assert.Equal(t, "b", txs[0].ID)
	assert.Equal(t, "a", txs[1].ID)
	assert.Equal(t, models.StatusPending, txs[1].Status)
	assert.True(t, baseTime.Equal(txs[1].CreatedAt))
}

func TestLogTransaction_TrimsToMaxEntries(t *testing.T) {
	var sizes []int
	l, _ := newTestLedger(t, ledger.WithMaxEntries(3), ledger.WithSizeObserver(func(n int) { sizes = append(sizes, n) }))
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		l.LogTransaction(ctx, pending(fmt.Sprintf("tx-%d", i), 10))
	}

	txs := l.GetTransactions(ctx, nil)
	require.Len(t, txs, 3)
	assert.Equal(t, "tx-5", txs[0].ID)
	assert.Equal(t, "tx-3", txs[2].ID)
	assert.Equal(t, []int{1, 2, 3, 3, 3}, sizes)
}

func TestLogTransaction_QuotaExceededTrimsToHalfAndRetries(t *testing.T) {
	store := mocks.NewMockStore(t)
	l := ledger.NewLedger(store, ledger.WithMaxEntries(4))
	ctx := context.Background()

	existing := []models.Transaction{pending("a", 1), pending("b", 1), pending("c", 1), pending("d", 1)}
	raw, err := json.Marshal(existing)
	require.NoError(t, err)

	store.EXPECT().Load(ctx, ledger.StorageKey).Return(raw, nil).Once()
	store.EXPECT().
		Save(ctx, ledger.StorageKey, mock.Anything).
		Return(fmt.Errorf("write: %w", repository.ErrQuotaExceeded)).
		Once()
	store.EXPECT().
		Save(ctx, ledger.StorageKey, mock.MatchedBy(func(data []byte) bool {
			var txs []models.Transaction
			return json.Unmarshal(data, &txs) == nil && len(txs) == 2 && txs[0].ID == "new"
		})).
		Return(nil).
		Once()

	l.LogTransaction(ctx, pending("new", 5))
}

func TestLogTransaction_PersistenceFailureIsSwallowed(t *testing.T) {
	store := mocks.NewMockStore(t)
	l := ledger.NewLedger(store)
	ctx := context.Background()

	store.EXPECT().Load(ctx, ledger.StorageKey).Return(nil, repository.ErrNotFound).Once()
	store.EXPECT().Save(ctx, ledger.StorageKey, mock.Anything).Return(errors.New("disk full")).Once()

	assert.NotPanics(t, func() { l.LogTransaction(ctx, pending("x", 1)) })
}

func TestGetTransactions_MalformedStoreYieldsEmpty(t *testing.T) {
	store := mocks.NewMockStore(t)
	l := ledger.NewLedger(store)
	ctx := context.Background()

	store.EXPECT().Load(ctx, ledger.StorageKey).Return([]byte("{not json"), nil).Once()

	assert.Empty(t, l.GetTransactions(ctx, nil))
}

func TestGetTransactions_Filter(t *testing.T) {
	l, c := newTestLedger(t)
	ctx := context.Background()

	l.LogTransaction(ctx, pending("small", 5))
	c.Advance(time.Hour)
	l.LogTransaction(ctx, pending("medium", 50))
	c.Advance(time.Hour)
	l.LogTransaction(ctx, pending("large", 500))
	require.True(t, l.UpdateTransactionStatus(ctx, "large", models.StatusCompleted, nil))

	byStatus := l.GetTransactions(ctx, &ledger.Filter{Status: models.StatusCompleted})
	require.Len(t, byStatus, 1)
	assert.Equal(t, "large", byStatus[0].ID)

	byAmount := l.GetTransactions(ctx, &ledger.Filter{MinAmount: ptr(5.0), MaxAmount: ptr(50.0)})
	assert.Len(t, byAmount, 2)

	from := baseTime.Add(time.Hour)
	to := baseTime.Add(time.Hour)
	byDate := l.GetTransactions(ctx, &ledger.Filter{DateFrom: &from, DateTo: &to})
	require.Len(t, byDate, 1)
	assert.Equal(t, "medium", byDate[0].ID)

	combined := l.GetTransactions(ctx, &ledger.Filter{Status: models.StatusPending, MinAmount: ptr(100.0)})
	assert.Empty(t, combined)
}

func TestUpdateTransactionStatus_StateMachine(t *testing.T) {
	l, c := newTestLedger(t)
	ctx := context.Background()
	l.LogTransaction(ctx, pending("tx", 10))

	assert.False(t, l.UpdateTransactionStatus(ctx, "missing", models.StatusCompleted, nil))
	assert.False(t, l.UpdateTransactionStatus(ctx, "tx", models.StatusRefunded, nil))

	require.True(t, l.UpdateTransactionStatus(ctx, "tx", models.StatusCompleted, nil))
	first, _ := l.GetTransactionByID(ctx, "tx")
	require.NotNil(t, first.CompletedAt)

	c.Advance(time.Minute)
	require.True(t, l.UpdateTransactionStatus(ctx, "tx", models.StatusCompleted, nil))
	second, _ := l.GetTransactionByID(ctx, "tx")
	assert.Equal(t, models.StatusCompleted, second.Status)
	assert.False(t, second.CompletedAt.Before(*first.CompletedAt))

	refundedAt := baseTime.Add(2 * time.Hour)
	require.True(t, l.UpdateTransactionStatus(ctx, "tx", models.StatusRefunded, &refundedAt))
	refunded, _ := l.GetTransactionByID(ctx, "tx")
	assert.Equal(t, models.StatusRefunded, refunded.Status)
	assert.True(t, refundedAt.Equal(*refunded.CompletedAt))

	assert.False(t, l.UpdateTransactionStatus(ctx, "tx", models.StatusCompleted, nil))
}

func TestUpdateTransactionStatus_FailedHasNoCompletedAt(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	l.LogTransaction(ctx, pending("tx", 10))

	require.True(t, l.UpdateTransactionStatus(ctx, "tx", models.StatusFailed, ptr(baseTime)))
	require.True(t, l.UpdateTransactionStatus(ctx, "tx", models.StatusFailed, nil))

	got, _ := l.GetTransactionByID(ctx, "tx")
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Nil(t, got.CompletedAt)
	assert.False(t, l.UpdateTransactionStatus(ctx, "tx", models.StatusCompleted, nil))
}

func TestUpdateTransactionStatus_TargetsFirstDuplicate(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	l.LogTransaction(ctx, pending("dup", 1))
	l.LogTransaction(ctx, pending("dup", 2))

	require.True(t, l.UpdateTransactionStatus(ctx, "dup", models.StatusCompleted, nil))

	txs := l.GetTransactions(ctx, nil)
	require.Len(t, txs, 2)
	assert.Equal(t, models.StatusCompleted, txs[0].Status)
	assert.Equal(t, 2.0, txs[0].Amount)
	assert.Equal(t, models.StatusPending, txs[1].Status)
}

func TestOverrideTransactionStatus_ResurrectsFailed(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	l.LogTransaction(ctx, pending("tx", 10))
	require.True(t, l.UpdateTransactionStatus(ctx, "tx", models.StatusFailed, nil))

	assert.ErrorIs(t, l.OverrideTransactionStatus(ctx, "tx", models.StatusCompleted, ""), ledger.ErrReasonRequired)
	assert.ErrorIs(t, l.OverrideTransactionStatus(ctx, "tx", "BOGUS", "x"), ledger.ErrInvalidStatus)
	assert.ErrorIs(t, l.OverrideTransactionStatus(ctx, "nope", models.StatusCompleted, "x"), ledger.ErrTransactionNotFound)

	require.NoError(t, l.OverrideTransactionStatus(ctx, "tx", models.StatusCompleted, "processor confirmed order 42"))

	got, _ := l.GetTransactionByID(ctx, "tx")
	assert.Equal(t, models.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	require.Len(t, got.Overrides, 1)
	assert.Equal(t, models.StatusFailed, got.Overrides[0].From)
	assert.Equal(t, models.StatusCompleted, got.Overrides[0].To)
	assert.Equal(t, "processor confirmed order 42", got.Overrides[0].Reason)
}

func TestAttachReferencesAndFindByProcessorRef(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	l.LogTransaction(ctx, pending("tx", 10))

	assert.False(t, l.AttachReferences(ctx, "missing", ledger.References{ReceiptURL: "x"}))
	require.True(t, l.AttachReferences(ctx, "tx", ledger.References{ReceiptURL: "https://r", ProcessorRef: "ord_1"}))
	require.True(t, l.AttachReferences(ctx, "tx", ledger.References{RefundID: "ref_9"}))

	got, ok := l.FindByProcessorRef(ctx, "ord_1")
	require.True(t, ok)
	assert.Equal(t, "tx", got.ID)
	assert.Equal(t, "https://r", got.ReceiptURL)
	assert.Equal(t, "ref_9", got.RefundID)

	_, ok = l.FindByProcessorRef(ctx, "")
	assert.False(t, ok)
}

func TestGetTransactionStats(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	l.LogTransaction(ctx, pending("c", 100))
	l.LogTransaction(ctx, pending("p", 50))
	l.LogTransaction(ctx, pending("f", 75))
	require.True(t, l.UpdateTransactionStatus(ctx, "c", models.StatusCompleted, nil))
	require.True(t, l.UpdateTransactionStatus(ctx, "f", models.StatusFailed, nil))

	stats := l.GetTransactionStats(ctx)

	assert.Equal(t, ledger.Stats{Total: 3, Completed: 1, Pending: 1, Failed: 1, TotalAmount: 100, AverageAmount: 100}, stats)
}

func TestGetTransactionStats_Empty(t *testing.T) {
	l, _ := newTestLedger(t)

	stats := l.GetTransactionStats(context.Background())

	assert.Equal(t, ledger.Stats{}, stats)
}

func TestDetectSuspiciousTransactions(t *testing.T) {
	l, c := newTestLedger(t)
	ctx := context.Background()

	old := pending("old-large", 5000)
	old.CreatedAt = baseTime.Add(-2 * time.Hour)
	l.LogTransaction(ctx, old)

	for i := 0; i < 4; i++ {
		tx := pending(fmt.Sprintf("fail-%d", i), 10)
		tx.CustomerInfo = &models.CustomerInfo{Email: "carder@example.com"}
		l.LogTransaction(ctx, tx)
		require.True(t, l.UpdateTransactionStatus(ctx, tx.ID, models.StatusFailed, nil))
	}
	ok := pending("carder-ok", 10)
	ok.CustomerInfo = &models.CustomerInfo{Email: "carder@example.com"}
	l.LogTransaction(ctx, ok)

	for i := 0; i < 3; i++ {
		tx := pending(fmt.Sprintf("three-%d", i), 10)
		tx.CustomerInfo = &models.CustomerInfo{ID: "cust-3"}
		l.LogTransaction(ctx, tx)
		require.True(t, l.UpdateTransactionStatus(ctx, tx.ID, models.StatusFailed, nil))
	}

	large := pending("large", 1500)
	large.CustomerInfo = nil
	l.LogTransaction(ctx, large)
	c.Advance(time.Minute)

	flagged := l.DetectSuspiciousTransactions(ctx)

	ids := make([]string, 0, len(flagged))
	for _, tx := range flagged {
		ids = append(ids, tx.ID)
	}
	assert.ElementsMatch(t, []string{"fail-0", "fail-1", "fail-2", "fail-3", "carder-ok", "large"}, ids)
}

func TestExportTransactions(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	tx := pending("tx-1", 19.99)
	tx.CustomerInfo = &models.CustomerInfo{Email: "a@b.co", Name: `Dana "DJ" Levi`}
	l.LogTransaction(ctx, tx)
	l.LogTransaction(ctx, pending("tx-2", 5))
	require.True(t, l.UpdateTransactionStatus(ctx, "tx-1", models.StatusCompleted, nil))

	out, err := l.ExportTransactions(ctx, ledger.FormatJSON)
	require.NoError(t, err)
	var parsed []models.Transaction
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Len(t, parsed, len(l.GetTransactions(ctx, nil)))

	csv, err := l.ExportTransactions(ctx, ledger.FormatCSV)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID,Amount,Currency,Status,Created At,Completed At,Payment Method,Customer Email,Customer Name,Receipt URL", lines[0])
	assert.Contains(t, lines[2], `"tx-1","19.99","ILS","COMPLETED"`)
	assert.Contains(t, lines[2], `"Dana ""DJ"" Levi"`)

	_, err = l.ExportTransactions(ctx, "xml")
	assert.Error(t, err)
}

func TestExportTransactions_EmptyCSVHasHeader(t *testing.T) {
	l, _ := newTestLedger(t)

	out, err := l.ExportTransactions(context.Background(), ledger.FormatCSV)

	require.NoError(t, err)
	assert.Equal(t, "ID,Amount,Currency,Status,Created At,Completed At,Payment Method,Customer Email,Customer Name,Receipt URL\n", out)
}

func TestClearAllTransactions(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	l.LogTransaction(ctx, pending("tx", 1))

	require.NoError(t, l.ClearAllTransactions(ctx))

	assert.Empty(t, l.GetTransactions(ctx, nil))
}
