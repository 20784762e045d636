package boltdb_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jeffleon2/draftea-checkout-service/internal/repository"
	"github.com/jeffleon2/draftea-checkout-service/internal/repository/boltdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *boltdb.Store {
	t.Helper()
	s, err := boltdb.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoad_MissingKey(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load(context.Background(), "nope")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSaveLoadDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "k", []byte(`[1,2]`)))
	got, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[1,2]`), got)

	require.NoError(t, s.Save(ctx, "k", []byte(`[]`)))
	got, err = s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)

	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Load(ctx, "k")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMarkProcessed_FirstDeliveryOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.MarkProcessed(ctx, "wh_1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := s.MarkProcessed(ctx, "wh_1")
	require.NoError(t, err)
	assert.False(t, again)

	other, err := s.MarkProcessed(ctx, "wh_2")
	require.NoError(t, err)
	assert.True(t, other)
}

func TestQuotaStore_RejectsOversizedWrites(t *testing.T) {
	s := repository.NewQuotaStore(newTestStore(t), 8)
	ctx := context.Background()

	assert.NoError(t, s.Save(ctx, "k", []byte("12345678")))
	err := s.Save(ctx, "k", []byte("123456789"))
	assert.ErrorIs(t, err, repository.ErrQuotaExceeded)

	got, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("12345678"), got)
}
