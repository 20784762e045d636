package main

import (
	"fmt"
	"os"

	"github.com/jeffleon2/draftea-checkout-service/config"
	"github.com/jeffleon2/draftea-checkout-service/internal/app"
	"github.com/jeffleon2/draftea-checkout-service/internal/ledger"
)

var Version = "dev"

func main() {
	rootCmd := newRootCmd(openLedger, os.Stdout)
	rootCmd.Version = Version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openLedger opens the same store the service uses, without the quota wrapper.
func openLedger() (*env, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	store, closeStore, err := app.OpenStore(cfg.Ledger, cfg.DB)
	if err != nil {
		return nil, err
	}
	return &env{
		ledger:  ledger.NewLedger(store, ledger.WithMaxEntries(cfg.Ledger.MaxEntries)),
		config:  cfg,
		release: closeStore,
	}, nil
}
