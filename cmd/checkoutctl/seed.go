package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jeffleon2/draftea-checkout-service/internal/ledger"
	"github.com/jeffleon2/draftea-checkout-service/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// demoTransactions covers every status so the admin views have something to show.
func demoTransactions(now time.Time) []models.Transaction {
	completed := now.Add(-2*time.Hour + 3*time.Minute)
	return []models.Transaction{
		{
			ID:              "demo-1",
			Amount:          49.90,
			Currency:        models.CurrencyUSD,
			Status:          models.StatusCompleted,
			CreatedAt:       now.Add(-2 * time.Hour),
			CompletedAt:     &completed,
			PaymentMethodID: "lemonsqueezy",
			CustomerInfo:    &models.CustomerInfo{Email: "alice@example.com", Name: "Alice"},
		},
		{
			ID:              "demo-2",
			Amount:          120,
			Currency:        models.CurrencyEUR,
			Status:          models.StatusFailed,
			CreatedAt:       now.Add(-90 * time.Minute),
			PaymentMethodID: "lemonsqueezy",
			CustomerInfo:    &models.CustomerInfo{Email: "bob@example.com", Name: "Bob"},
		},
		{
			ID:              "demo-3",
			Amount:          350,
			Currency:        models.CurrencyILS,
			Status:          models.StatusPending,
			CreatedAt:       now.Add(-10 * time.Minute),
			PaymentMethodID: "lemonsqueezy",
			CustomerInfo:    &models.CustomerInfo{Email: "carol@example.com", Name: "Carol"},
		},
		{
			ID:              "demo-4",
			Amount:          19,
			Currency:        models.CurrencyUSD,
			Status:          models.StatusRefunded,
			CreatedAt:       now.Add(-26 * time.Hour),
			PaymentMethodID: "lemonsqueezy",
			CustomerInfo:    &models.CustomerInfo{Email: "alice@example.com", Name: "Alice"},
			RefundID:        "demo-refund-4",
		},
	}
}

// seedTransactions inserts the demo rows that are not already present and returns how many it added.
func seedTransactions(ctx context.Context, l *ledger.Ledger, now time.Time) int {
	added := 0
	for _, tx := range demoTransactions(now) {
		if _, err := l.GetTransactionByID(ctx, tx.ID); err == nil {
			continue
		}
		l.LogTransaction(ctx, tx)
		added++
	}
	return added
}

func seedCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo transactions for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			defer e.Close()

			added := seedTransactions(cmd.Context(), e.ledger, time.Now().UTC())
			logrus.WithField("added", added).Info("demo transactions seeded")
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d transactions\n", added)
			return nil
		},
	}
}
