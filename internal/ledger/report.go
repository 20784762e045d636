package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jeffleon2/draftea-checkout-service/internal/models"
	"github.com/shopspring/decimal"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"

	suspiciousWindow        = time.Hour
	suspiciousFailureCount  = 3
	suspiciousAmountCeiling = 1000
)

var csvHeader = []string{
	"ID", "Amount", "Currency", "Status", "Created At", "Completed At",
	"Payment Method", "Customer Email", "Customer Name", "Receipt URL",
}

// Filter is a conjunction; zero-valued fields do not constrain. Date bounds are inclusive.
type Filter struct {
	Status    models.TransactionStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	MinAmount *float64
	MaxAmount *float64
}

func (f Filter) Matches(tx models.Transaction) bool {
	if f.Status != "" && tx.Status != f.Status {
		return false
	}
	if f.DateFrom != nil && tx.CreatedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && tx.CreatedAt.After(*f.DateTo) {
		return false
	}
	if f.MinAmount != nil && tx.Amount < *f.MinAmount {
		return false
	}
	if f.MaxAmount != nil && tx.Amount > *f.MaxAmount {
		return false
	}
	return true
}

type Stats struct {
	Total         int     `json:"total"`
	Completed     int     `json:"completed"`
	Pending       int     `json:"pending"`
	Failed        int     `json:"failed"`
	Refunded      int     `json:"refunded"`
	TotalAmount   float64 `json:"total_amount"`
	AverageAmount float64 `json:"average_amount"`
}

// GetTransactionStats sums Completed amounts only.
func (l *Ledger) GetTransactionStats(ctx context.Context) Stats {
	txs := l.GetTransactions(ctx, nil)

	stats := Stats{Total: len(txs)}
	total := decimal.Zero
	for _, tx := range txs {
		switch tx.Status {
		case models.StatusCompleted:
			stats.Completed++
			total = total.Add(decimal.NewFromFloat(tx.Amount))
		case models.StatusPending:
			stats.Pending++
		case models.StatusFailed:
			stats.Failed++
		case models.StatusRefunded:
			stats.Refunded++
		}
	}
	stats.TotalAmount = total.InexactFloat64()
	if stats.Completed > 0 {
		stats.AverageAmount = total.Div(decimal.NewFromInt(int64(stats.Completed))).InexactFloat64()
	}
	return stats
}

// DetectSuspiciousTransactions looks at the last hour only. It flags every transaction of a
// customer with more than three failures, plus any transaction above 1000. It never blocks anything.
func (l *Ledger) DetectSuspiciousTransactions(ctx context.Context) []models.Transaction {
	cutoff := l.now().Add(-suspiciousWindow)
	recent := l.GetTransactions(ctx, &Filter{DateFrom: &cutoff})

	groups := make(map[string][]int)
	failures := make(map[string]int)
	for i, tx := range recent {
		key := tx.CustomerKey()
		groups[key] = append(groups[key], i)
		if tx.Status == models.StatusFailed {
			failures[key]++
		}
	}

	flagged := make([]bool, len(recent))
	for key, idxs := range groups {
		if failures[key] > suspiciousFailureCount {
			for _, i := range idxs {
				flagged[i] = true
			}
		}
	}
	for i, tx := range recent {
		if tx.Amount > suspiciousAmountCeiling {
			flagged[i] = true
		}
	}

	seen := make(map[string]bool)
	out := []models.Transaction{}
	for i, tx := range recent {
		if flagged[i] && !seen[tx.ID] {
			seen[tx.ID] = true
			out = append(out, tx)
		}
	}
	return out
}

// ExportTransactions renders the whole ledger as csv or json.
func (l *Ledger) ExportTransactions(ctx context.Context, format string) (string, error) {
	txs := l.GetTransactions(ctx, nil)

	switch strings.ToLower(format) {
	case FormatJSON:
		b, err := json.MarshalIndent(txs, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal export: %w", err)
		}
		return string(b), nil
	case FormatCSV:
		var sb strings.Builder
		sb.WriteString(strings.Join(csvHeader, ",") + "\n")
		for _, tx := range txs {
			completed := ""
			if tx.CompletedAt != nil {
				completed = tx.CompletedAt.UTC().Format(time.RFC3339)
			}
			writeCSVRow(&sb, []string{
				tx.ID,
				decimal.NewFromFloat(tx.Amount).StringFixed(2),
				string(tx.Currency),
				string(tx.Status),
				tx.CreatedAt.UTC().Format(time.RFC3339),
				completed,
				tx.PaymentMethodID,
				tx.CustomerEmail(),
				tx.CustomerName(),
				tx.ReceiptURL,
			})
		}
		return sb.String(), nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
}

// writeCSVRow quotes every field, doubling embedded quotes.
// writeCSVRow quotes every field; the header row is written bare.
func writeCSVRow(sb *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(f, `"`, `""`))
		sb.WriteByte('"')
	}
	sb.WriteByte('\n')
}
