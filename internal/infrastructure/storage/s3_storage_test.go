package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraconfig "github.com/loomworks/backend/internal/infrastructure/config"
)

func validStorageConfig() *infraconfig.StorageConfig {
	return &infraconfig.StorageConfig{
		Endpoint:     "localhost:9000",
		Bucket:       "order-documents",
		AccessKey:    "test-access",
		SecretKey:    "test-secret",
		UsePathStyle: true,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*infraconfig.StorageConfig)
		wantErr string
	}{
		{
			name:    "nil config",
			wantErr: "storage configuration is required",
		},
		{
			name:    "missing bucket",
			mutate:  func(c *infraconfig.StorageConfig) { c.Bucket = "" },
			wantErr: "bucket is required",
		},
		{
			name:    "missing access key",
			mutate:  func(c *infraconfig.StorageConfig) { c.AccessKey = "" },
			wantErr: "credentials are required",
		},
		{
			name:    "missing secret key",
			mutate:  func(c *infraconfig.StorageConfig) { c.SecretKey = "" },
			wantErr: "credentials are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg *infraconfig.StorageConfig
			if tt.mutate != nil {
				cfg = validStorageConfig()
				tt.mutate(cfg)
			}
			_, err := NewS3ObjectStorage(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("valid config", func(t *testing.T) {
		st, err := NewS3ObjectStorage(validStorageConfig())
		require.NoError(t, err)
		require.NotNil(t, st)
		assert.Equal(t, "order-documents", st.bucket)
		assert.Equal(t, defaultPresignExpiration, st.presignExpiration)
	})
}

func TestResolveEndpoint(t *testing.T) {
	t.Run("adds http scheme by default", func(t *testing.T) {
		cfg := validStorageConfig()
		endpoint, err := resolveEndpoint(cfg)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9000", endpoint)
	})

	t.Run("adds https scheme when ssl enabled", func(t *testing.T) {
		cfg := validStorageConfig()
		cfg.Endpoint = "s3.example.com"
		cfg.UseSSL = true
		endpoint, err := resolveEndpoint(cfg)
		require.NoError(t, err)
		assert.Equal(t, "https://s3.example.com", endpoint)
	})

	t.Run("keeps explicit scheme", func(t *testing.T) {
		cfg := validStorageConfig()
		cfg.Endpoint = "https://minio.internal:9443"
		endpoint, err := resolveEndpoint(cfg)
		require.NoError(t, err)
		assert.Equal(t, "https://minio.internal:9443", endpoint)
	})

	t.Run("empty endpoint falls back to local default", func(t *testing.T) {
		cfg := validStorageConfig()
		cfg.Endpoint = ""
		endpoint, err := resolveEndpoint(cfg)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9000", endpoint)
	})
}

func TestS3ObjectStorage_Options(t *testing.T) {
	st, err := NewS3ObjectStorage(validStorageConfig(),
		WithPresignExpiration(time.Hour),
	)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, st.presignExpiration)

	// Non-positive override is ignored
	st, err = NewS3ObjectStorage(validStorageConfig(),
		WithPresignExpiration(-time.Minute),
	)
	require.NoError(t, err)
	assert.Equal(t, defaultPresignExpiration, st.presignExpiration)
}

func TestS3ObjectStorage_GenerateUploadURL(t *testing.T) {
	st, err := NewS3ObjectStorage(validStorageConfig())
	require.NoError(t, err)

	t.Run("signs a PUT url for the key", func(t *testing.T) {
		url, expiresAt, err := st.GenerateUploadURL(context.Background(), "orders/42/quotation.pdf", "application/pdf", 10*time.Minute)
		require.NoError(t, err)
		assert.Contains(t, url, "orders/42/quotation.pdf")
		assert.Contains(t, url, "X-Amz-Signature")
		assert.True(t, expiresAt.After(time.Now()))
	})

	t.Run("empty key rejected", func(t *testing.T) {
		_, _, err := st.GenerateUploadURL(context.Background(), "", "application/pdf", 0)
		assert.Error(t, err)
	})
}

func TestS3ObjectStorage_GenerateDownloadURL(t *testing.T) {
	st, err := NewS3ObjectStorage(validStorageConfig())
	require.NoError(t, err)

	t.Run("signs a GET url for the key", func(t *testing.T) {
		url, expiresAt, err := st.GenerateDownloadURL(context.Background(), "orders/42/invoice.pdf", time.Hour)
		require.NoError(t, err)
		assert.Contains(t, url, "orders/42/invoice.pdf")
		assert.Contains(t, url, "X-Amz-Signature")
		assert.True(t, expiresAt.After(time.Now().Add(59*time.Minute)))
	})

	t.Run("empty key rejected", func(t *testing.T) {
		_, _, err := st.GenerateDownloadURL(context.Background(), "", 0)
		assert.Error(t, err)
	})
}

func TestS3ObjectStorage_KeyValidation(t *testing.T) {
	st, err := NewS3ObjectStorage(validStorageConfig())
	require.NoError(t, err)

	assert.Error(t, st.DeleteObject(context.Background(), ""))

	_, err = st.ObjectExists(context.Background(), "")
	assert.Error(t, err)
}

func TestS3ObjectStorage_ObjectURL(t *testing.T) {
	t.Run("endpoint-based url", func(t *testing.T) {
		st, err := NewS3ObjectStorage(validStorageConfig())
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9000/order-documents/orders/1/a.pdf", st.ObjectURL("orders/1/a.pdf"))
	})

	t.Run("public base url wins", func(t *testing.T) {
		cfg := validStorageConfig()
		cfg.PublicBaseURL = "https://files.loomworks.example/"
		st, err := NewS3ObjectStorage(cfg)
		require.NoError(t, err)
		url := st.ObjectURL("orders/1/a.pdf")
		assert.Equal(t, "https://files.loomworks.example/orders/1/a.pdf", url)
		assert.False(t, strings.Contains(url, "localhost"))
	})
}
