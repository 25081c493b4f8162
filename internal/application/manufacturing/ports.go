package manufacturing

import (
	"context"
	"time"
)

// ObjectStorageService abstracts the S3-compatible blob store holding order
// documents. Uploads happen directly from the client against presigned URLs;
// the API only hands out URLs and tracks storage keys.
type ObjectStorageService interface {
	// GenerateUploadURL generates a presigned URL for uploading a file
	// Returns the upload URL and expiration time
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// GenerateDownloadURL generates a presigned URL for downloading a file
	// Returns the download URL and expiration time
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject deletes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error

	// ObjectExists checks if an object exists in storage
	ObjectExists(ctx context.Context, storageKey string) (bool, error)

	// ObjectURL returns the stable (non-presigned) URL of an object. It is
	// what gets persisted on the order; presigned download URLs are minted
	// per read.
	ObjectURL(storageKey string) string
}
