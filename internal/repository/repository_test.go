package repository_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jeffleon2/draftea-checkout-service/internal/repository"
	"github.com/jeffleon2/draftea-checkout-service/internal/repository/boltdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaStore(t *testing.T) {
	inner, err := boltdb.New(filepath.Join(t.TempDir(), "quota.db"))
	require.NoError(t, err)
	t.Cleanup(func() { inner.Close() })
	ctx := context.Background()

	q := repository.NewQuotaStore(inner, 8)

	require.NoError(t, q.Save(ctx, "k", []byte("12345678")))
	err = q.Save(ctx, "k", []byte("123456789"))
	assert.ErrorIs(t, err, repository.ErrQuotaExceeded)

	got, err := q.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("12345678"), got, "rejected write must not reach the backend")

	require.NoError(t, q.Delete(ctx, "k"))
	_, err = q.Load(ctx, "k")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestQuotaStore_ZeroLimitIsUnbounded(t *testing.T) {
	inner, err := boltdb.New(filepath.Join(t.TempDir(), "unbounded.db"))
	require.NoError(t, err)
	t.Cleanup(func() { inner.Close() })

	q := repository.NewQuotaStore(inner, 0)
	assert.NoError(t, q.Save(context.Background(), "k", make([]byte, 4096)))
}
