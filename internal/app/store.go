package app

import (
	"fmt"
	"strings"

	"github.com/jeffleon2/draftea-checkout-service/config"
	"github.com/jeffleon2/draftea-checkout-service/internal/repository"
	"github.com/jeffleon2/draftea-checkout-service/internal/repository/boltdb"
	"github.com/jeffleon2/draftea-checkout-service/internal/repository/posgrest"
)

// OpenStore opens the backend selected by LEDGER_STORE. The returned func releases it.
func OpenStore(cfg config.Ledger, db config.DB) (repository.Store, func() error, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "bolt":
		s, err := boltdb.New(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "postgres":
		conn, err := db.GormConnect()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s, err := posgrest.NewStore(conn)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, nil, err
		}
		return s, sqlDB.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown ledger store %q", cfg.Driver)
	}
}

// NewLedgerStore applies the configured quota to the backend used by the ledger.
func NewLedgerStore(s repository.BlobStore, cfg config.Ledger) repository.BlobStore {
	if cfg.QuotaBytes <= 0 {
		return s
	}
	return repository.NewQuotaStore(s, cfg.QuotaBytes)
}
