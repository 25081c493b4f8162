package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryObjectStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("upload then exists and download", func(t *testing.T) {
		store := NewMemoryObjectStorage("https://files.test")

		url, expiresAt, err := store.GenerateUploadURL(ctx, "orders/1/quotation.pdf", "application/pdf", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, "https://files.test/upload/orders/1/quotation.pdf", url)
		assert.True(t, expiresAt.After(time.Now()))

		exists, err := store.ObjectExists(ctx, "orders/1/quotation.pdf")
		require.NoError(t, err)
		assert.True(t, exists)

		dl, _, err := store.GenerateDownloadURL(ctx, "orders/1/quotation.pdf", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, "https://files.test/download/orders/1/quotation.pdf", dl)
	})

	t.Run("unknown key does not exist", func(t *testing.T) {
		store := NewMemoryObjectStorage("")

		exists, err := store.ObjectExists(ctx, "orders/9/missing.pdf")
		require.NoError(t, err)
		assert.False(t, exists)

		_, _, err = store.GenerateDownloadURL(ctx, "orders/9/missing.pdf", time.Minute)
		assert.Error(t, err)
	})

	t.Run("delete removes the key and is idempotent", func(t *testing.T) {
		store := NewMemoryObjectStorage("")
		_, _, err := store.GenerateUploadURL(ctx, "orders/2/sheet.pdf", "application/pdf", time.Minute)
		require.NoError(t, err)
		require.Equal(t, 1, store.Len())

		require.NoError(t, store.DeleteObject(ctx, "orders/2/sheet.pdf"))
		assert.Zero(t, store.Len())

		// Second delete of the same key still succeeds
		assert.NoError(t, store.DeleteObject(ctx, "orders/2/sheet.pdf"))
	})

	t.Run("empty key is rejected everywhere", func(t *testing.T) {
		store := NewMemoryObjectStorage("")

		_, _, err := store.GenerateUploadURL(ctx, "", "application/pdf", time.Minute)
		assert.Error(t, err)
		_, _, err = store.GenerateDownloadURL(ctx, "", time.Minute)
		assert.Error(t, err)
		assert.Error(t, store.DeleteObject(ctx, ""))
		_, err = store.ObjectExists(ctx, "")
		assert.Error(t, err)
	})

	t.Run("object url is stable", func(t *testing.T) {
		store := NewMemoryObjectStorage("https://files.test")
		assert.Equal(t, "https://files.test/orders/3/invoice.pdf", store.ObjectURL("orders/3/invoice.pdf"))
	})
}
