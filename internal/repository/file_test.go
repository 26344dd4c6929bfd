package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafadias/shopee-scraper/internal/models"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	ctx := context.Background()

	store, err := NewFileStore(path)
	require.NoError(t, err)

	rec := &models.ProductRecord{
		ItemID:     "22593522326",
		ShopID:     "1167885424",
		Name:       "Sapato X",
		PriceMin:   181.28,
		Provenance: models.ProvenanceAuthoritative,
	}
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Lookup(ctx, "22593522326")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Sapato X", got.Name)
	assert.Equal(t, models.ProvenanceAuthoritative, got.Provenance)

	// A fresh store must read the flushed file.
	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	got, err = reopened.Lookup(ctx, "22593522326")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Sapato X", got.Name)
	assert.Equal(t, 1, reopened.Len())
}

func TestFileStoreMiss(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "products.json"))
	require.NoError(t, err)

	got, err := store.Lookup(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileStoreRejectsEmptyItemID(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "products.json"))
	require.NoError(t, err)

	err = store.Save(context.Background(), &models.ProductRecord{Name: "sem id"})
	assert.Error(t, err)
}

func TestFileStoreLookupReturnsCopy(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "products.json"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &models.ProductRecord{ItemID: "1", Name: "original"}))

	got, err := store.Lookup(ctx, "1")
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := store.Lookup(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Name)
}
