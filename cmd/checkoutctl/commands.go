package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jeffleon2/draftea-checkout-service/config"
	"github.com/jeffleon2/draftea-checkout-service/internal/ledger"
	"github.com/jeffleon2/draftea-checkout-service/internal/models"
	"github.com/jeffleon2/draftea-checkout-service/internal/security"
	"github.com/jeffleon2/draftea-checkout-service/internal/webhook"
	"github.com/spf13/cobra"
)

type env struct {
	ledger  *ledger.Ledger
	config  *config.Config
	release func() error
}

func (e *env) Close() {
	if e.release != nil {
		e.release()
	}
}

type opener func() (*env, error)

func newRootCmd(open opener, out io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "checkoutctl",
		Short:        "Administer the checkout transaction ledger",
		SilenceUsage: true,
	}
	rootCmd.SetOut(out)

	rootCmd.AddCommand(statsCmd(open))
	rootCmd.AddCommand(listCmd(open))
	rootCmd.AddCommand(exportCmd(open))
	rootCmd.AddCommand(suspiciousCmd(open))
	rootCmd.AddCommand(overrideCmd(open))
	rootCmd.AddCommand(clearCmd(open))
	rootCmd.AddCommand(tokenCmd(open))
	rootCmd.AddCommand(signCmd(open))
	rootCmd.AddCommand(seedCmd(open))

	return rootCmd
}

func statsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show transaction totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			defer e.Close()

			return writeJSON(cmd.OutOrStdout(), e.ledger.GetTransactionStats(cmd.Context()))
		},
	}
}

func listCmd(open opener) *cobra.Command {
	var status, from, to string
	var minAmount, maxAmount float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter ledger.Filter
			if status != "" {
				filter.Status = models.TransactionStatus(strings.ToUpper(status))
				if !filter.Status.IsValid() {
					return fmt.Errorf("invalid status %q", status)
				}
			}
			if from != "" {
				t, err := time.Parse(time.DateOnly, from)
				if err != nil {
					return fmt.Errorf("invalid --from: %w", err)
				}
				filter.DateFrom = &t
			}
			if to != "" {
				t, err := time.Parse(time.DateOnly, to)
				if err != nil {
					return fmt.Errorf("invalid --to: %w", err)
				}
				end := t.Add(24*time.Hour - time.Nanosecond)
				filter.DateTo = &end
			}
			if cmd.Flags().Changed("min") {
				filter.MinAmount = &minAmount
			}
			if cmd.Flags().Changed("max") {
				filter.MaxAmount = &maxAmount
			}

			e, err := open()
			if err != nil {
				return err
			}
			defer e.Close()

			txs := e.ledger.GetTransactions(cmd.Context(), &filter)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), txs)
			}
			return writeTable(cmd.OutOrStdout(), txs)
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (pending, completed, failed, refunded)")
	cmd.Flags().StringVar(&from, "from", "", "Created on or after date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Created on or before date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&minAmount, "min", 0, "Minimum amount")
	cmd.Flags().Float64Var(&maxAmount, "max", 0, "Maximum amount")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")

	return cmd
}

func exportCmd(open opener) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger as csv or json",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			defer e.Close()

			data, err := e.ledger.ExportTransactions(cmd.Context(), format)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = io.WriteString(cmd.OutOrStdout(), data)
				return err
			}
			return os.WriteFile(output, []byte(data), 0o644)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", ledger.FormatCSV, "Export format (csv, json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")

	return cmd
}

func suspiciousCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "suspicious",
		Short: "Show transactions flagged in the last hour",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			defer e.Close()

			return writeTable(cmd.OutOrStdout(), e.ledger.DetectSuspiciousTransactions(cmd.Context()))
		},
	}
}

func overrideCmd(open opener) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "override [id] [status]",
		Short: "Force a transaction into a status, recording why",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			defer e.Close()

			status := models.TransactionStatus(strings.ToUpper(args[1]))
			if err := e.ledger.OverrideTransactionStatus(cmd.Context(), args[0], status, reason); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", args[0], status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "", "Reason recorded on the transaction (required)")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}

func clearCmd(open opener) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear the ledger without --yes")
			}
			e, err := open()
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.ledger.ClearAllTransactions(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ledger cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the irreversible deletion")

	return cmd
}

func tokenCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Issue a session and csrf token pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			defer e.Close()

			guard := security.NewGuard(
				security.WithTokenSecret(e.config.Security.TokenSecret),
				security.WithSessionTTL(e.config.Security.SessionTTL),
			)
			defer guard.Close()

			session := guard.GenerateSessionToken()
			return writeJSON(cmd.OutOrStdout(), map[string]string{
				"session_token": session,
				"csrf_token":    guard.GenerateCSRFToken(session),
			})
		},
	}
}

func signCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "sign [payload-file]",
		Short: "Compute the X-Signature for a webhook payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			e, err := open()
			if err != nil {
				return err
			}
			defer e.Close()

			if e.config.Webhook.Secret == "" {
				return errors.New("WEBHOOK_SECRET is not set")
			}
			sig := webhook.NewHMACVerifier(e.config.Webhook.Secret).Sign(payload)
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(sig))
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, txs []models.Transaction) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tAMOUNT\tCURRENCY\tCUSTOMER\tCREATED")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\t%s\n",
			tx.ID, tx.Status, tx.Amount, tx.Currency, tx.CustomerKey(), tx.CreatedAt.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}
