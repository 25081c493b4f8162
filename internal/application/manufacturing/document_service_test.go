package manufacturing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/loomworks/backend/internal/domain/manufacturing"
	"github.com/loomworks/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockObjectStorageService is a mock implementation of ObjectStorageService
type MockObjectStorageService struct {
	mock.Mock
}

func (m *MockObjectStorageService) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, contentType, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorageService) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorageService) DeleteObject(ctx context.Context, storageKey string) error {
	args := m.Called(ctx, storageKey)
	return args.Error(0)
}

func (m *MockObjectStorageService) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	args := m.Called(ctx, storageKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockObjectStorageService) ObjectURL(storageKey string) string {
	args := m.Called(storageKey)
	return args.String(0)
}

var _ ObjectStorageService = (*MockObjectStorageService)(nil)

// recordingEventPublisher captures every published event
type recordingEventPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func newDocumentService(repo *MockOrderRepository, storage *MockObjectStorageService) *DocumentService {
	return NewDocumentService(repo, storage, nil)
}

func TestDocumentService_InitiateUpload(t *testing.T) {
	t.Run("returns a presigned upload URL", func(t *testing.T) {
		repo := new(MockOrderRepository)
		storage := new(MockObjectStorageService)
		service := newDocumentService(repo, storage)
		ctx := context.Background()

		order := newTestOrder(t)
		expiresAt := time.Now().Add(15 * time.Minute)
		repo.On("FindByIDForTenant", ctx, testTenantID, testOrderID).Return(order, nil)
		storage.On("GenerateUploadURL", ctx, mock.AnythingOfType("string"), "application/pdf", 15*time.Minute).
			Return("https://storage.example.com/presigned-put", expiresAt, nil)

		result, err := service.InitiateUpload(ctx, testTenantID, testOrderID, InitiateDocumentUploadRequest{
			FileName:    "quotation v2.pdf",
			ContentType: "application/pdf",
		})

		assert.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "https://storage.example.com/presigned-put", result.UploadURL)
		assert.Equal(t, expiresAt, result.ExpiresAt)
		assert.True(t, strings.HasPrefix(result.StorageKey, "tenants/"+testTenantID.String()+"/orders/"+testOrderID.String()+"/"))
		assert.NotContains(t, result.StorageKey, " ")
	})

	t.Run("rejects disallowed content type", func(t *testing.T) {
		repo := new(MockOrderRepository)
		storage := new(MockObjectStorageService)
		service := newDocumentService(repo, storage)
		ctx := context.Background()

		result, err := service.InitiateUpload(ctx, testTenantID, testOrderID, InitiateDocumentUploadRequest{
			FileName:    "setup.exe",
			ContentType: "application/x-msdownload",
		})

		assert.Nil(t, result)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "DISALLOWED_CONTENT_TYPE", domainErr.Code)
		storage.AssertNotCalled(t, "GenerateUploadURL", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fail when order not found", func(t *testing.T) {
		repo := new(MockOrderRepository)
		storage := new(MockObjectStorageService)
		service := newDocumentService(repo, storage)
		ctx := context.Background()

		repo.On("FindByIDForTenant", ctx, testTenantID, testOrderID).Return(nil, shared.ErrNotFound)

		_, err := service.InitiateUpload(ctx, testTenantID, testOrderID, InitiateDocumentUploadRequest{
			FileName:    "quotation.pdf",
			ContentType: "application/pdf",
		})

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestDocumentService_Attach(t *testing.T) {
	t.Run("attach a fixed slot document", func(t *testing.T) {
		repo := new(MockOrderRepository)
		storage := new(MockObjectStorageService)
		service := newDocumentService(repo, storage)
		ctx := context.Background()

		order := newTestOrder(t)
		storage.On("ObjectExists", ctx, "tenants/t/orders/o/q-v1").Return(true, nil)
		storage.On("ObjectURL", "tenants/t/orders/o/q-v1").Return("https://storage.example.com/bucket/q-v1")
		repo.On("FindByIDForTenant", ctx, testTenantID, testOrderID).Return(order, nil)
		repo.On("SaveWithLock", ctx, order).Return(nil)

		result, err := service.Attach(ctx, testTenantID, testOrderID, testActorID, AttachDocumentRequest{
			SlotKey:    "quotation",
			StorageKey: "tenants/t/orders/o/q-v1",
			FileType:   "application/pdf",
		})

		assert.NoError(t, err)
		require.NotNil(t, result)
		require.Len(t, result.Documents, 1)
		assert.Equal(t, "quotation", result.Documents[0].SlotKey)
		assert.True(t, result.Documents[0].IsSystem)
		assert.Equal(t, "https://storage.example.com/bucket/q-v1", result.Documents[0].URL)
		storage.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)
	})

	t.Run("replacing a fixed slot deletes the old blob", func(t *testing.T) {
		repo := new(MockOrderRepository)
		storage := new(MockObjectStorageService)
		service := newDocumentService(repo, storage)
		ctx := context.Background()

		order := newTestOrder(t)
		_, _, err := order.PutFixedDocument(manufacturing.SlotQuotation, manufacturing.FileRef{
			URL:        "https://storage.example.com/bucket/q-v1",
			StorageKey: "q-v1",
		}, testActorID)
		require.NoError(t, err)

		storage.On("ObjectExists", ctx, "q-v2").Return(true, nil)
		storage.On("ObjectURL", "q-v2").Return("https://storage.example.com/bucket/q-v2")
		storage.On("DeleteObject", ctx, "q-v1").Return(nil)
		repo.On("FindByIDForTenant", ctx, testTenantID, testOrderID).Return(order, nil)
		repo.On("SaveWithLock", ctx, order).Return(nil)

		result, err := service.Attach(ctx, testTenantID, testOrderID, testActorID, AttachDocumentRequest{
			SlotKey:    "quotation",
			StorageKey: "q-v2",
		})

		assert.NoError(t, err)
		require.Len(t, result.Documents, 1)
		assert.Equal(t, "https://storage.example.com/bucket/q-v2", result.Documents[0].URL)
		storage.AssertCalled(t, "DeleteObject", ctx, "q-v1")
	})

	t.Run("attach a flexible document", func(t *testing.T) {
		repo := new(MockOrderRepository)
		storage := new(MockObjectStorageService)
		service := newDocumentService(repo, storage)
		ctx := context.Background()

		order := newTestOrder(t)
		storage.On("ObjectExists", ctx, "swatch-1").Return(true, nil)
		storage.On("ObjectURL", "swatch-1").Return("https://storage.example.com/bucket/swatch-1")
		repo.On("FindByIDForTenant", ctx, testTenantID, testOrderID).Return(order, nil)
		repo.On("SaveWithLock", ctx, order).Return(nil)

		result, err := service.Attach(ctx, testTenantID, testOrderID, testActorID, AttachDocumentRequest{
			SlotKey:    "custom",
			Name:       "Fabric swatch",
			StorageKey: "swatch-1",
		})

		assert.NoError(t, err)
		require.Len(t, result.Documents, 1)
		assert.False(t, result.Documents[0].IsSystem)
		assert.Equal(t, "Fabric swatch", result.Documents[0].Name)
	})

	t.Run("fail when upload is missing from storage", func(t *testing.T) {
		repo := new(MockOrderRepository)
		storage := new(MockObjectStorageService)
		service := newDocumentService(repo, storage)
		ctx := context.Background()

		storage.On("ObjectExists", ctx, "nowhere").Return(false, nil)

		result, err := service.Attach(ctx, testTenantID, testOrderID, testActorID, AttachDocumentRequest{
			SlotKey:    "quotation",
			StorageKey: "nowhere",
		})

		assert.Nil(t, result)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "UPLOAD_NOT_FOUND", domainErr.Code)
		repo.AssertNotCalled(t, "FindByIDForTenant", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("propagates the flexible slot cap", func(t *testing.T) {
		repo := new(MockOrderRepository)
		storage := new(MockObjectStorageService)
		service := newDocumentService(repo, storage)
		ctx := context.Background()

		order := newTestOrder(t)
		for i := 0; i < manufacturing.MaxFlexibleDocuments; i++ {
			_, err := order.AddFlexibleDocument(manufacturing.FileRef{
				URL:        "https://storage.example.com/bucket/existing",
				StorageKey: "existing",
			}, "Existing", testActorID)
			require.NoError(t, err)
		}

		storage.On("ObjectExists", ctx, "one-more").Return(true, nil)
		storage.On("ObjectURL", "one-more").Return("https://storage.example.com/bucket/one-more")
		repo.On("FindByIDForTenant", ctx, testTenantID, testOrderID).Return(order, nil)

		_, err := service.Attach(ctx, testTenantID, testOrderID, testActorID, AttachDocumentRequest{
			SlotKey:    "custom",
			Name:       "One more",
			StorageKey: "one-more",
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "SLOT_LIMIT_EXCEEDED", domainErr.Code)
		repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("publishes the attached event and drains the aggregate", func(t *testing.T) {
		repo := new(MockOrderRepository)
		storage := new(MockObjectStorageService)
		publisher := new(recordingEventPublisher)
		service := newDocumentService(repo, storage)
		service.SetEventPublisher(publisher)
		ctx := context.Background()

		order := newTestOrder(t)
		storage.On("ObjectExists", ctx, "q-v1").Return(true, nil)
		storage.On("ObjectURL", "q-v1").Return("https://storage.example.com/bucket/q-v1")
		repo.On("FindByIDForTenant", ctx, testTenantID, testOrderID).Return(order, nil)
		repo.On("SaveWithLock", ctx, order).Return(nil)

		_, err := service.Attach(ctx, testTenantID, testOrderID, testActorID, AttachDocumentRequest{
			SlotKey:    "quotation",
			StorageKey: "q-v1",
		})

		require.NoError(t, err)
		require.Len(t, publisher.events, 1)
		assert.Equal(t, manufacturing.EventOrderDocumentAttached, publisher.events[0].EventType())
		assert.Empty(t, order.GetDomainEvents())
	})
}

func TestDocumentService_Delete(t *testing.T) {
	t.Run("deletes the document and its blob", func(t *testing.T) {
		repo := new(MockOrderRepository)
		storage := new(MockObjectStorageService)
		service := newDocumentService(repo, storage)
		ctx := context.Background()

		order := newTestOrder(t)
		doc, err := order.AddFlexibleDocument(manufacturing.FileRef{
			URL:        "https://storage.example.com/bucket/swatch-1",
			StorageKey: "swatch-1",
		}, "Fabric swatch", testActorID)
		require.NoError(t, err)

		repo.On("FindByIDForTenant", ctx, testTenantID, testOrderID).Return(order, nil)
		repo.On("SaveWithLock", ctx, order).Return(nil)
		storage.On("DeleteObject", ctx, "swatch-1").Return(nil)

		result, err := service.Delete(ctx, testTenantID, testOrderID, doc.ID, testActorID)

		assert.NoError(t, err)
		require.NotNil(t, result)
		assert.Empty(t, result.Documents)
		storage.AssertExpectations(t)
	})

	t.Run("a failed blob delete does not fail the request", func(t *testing.T) {
		repo := new(MockOrderRepository)
		storage := new(MockObjectStorageService)
		service := newDocumentService(repo, storage)
		ctx := context.Background()

		order := newTestOrder(t)
		doc, err := order.AddFlexibleDocument(manufacturing.FileRef{
			URL:        "https://storage.example.com/bucket/swatch-1",
			StorageKey: "swatch-1",
		}, "Fabric swatch", testActorID)
		require.NoError(t, err)

		repo.On("FindByIDForTenant", ctx, testTenantID, testOrderID).Return(order, nil)
		repo.On("SaveWithLock", ctx, order).Return(nil)
		storage.On("DeleteObject", ctx, "swatch-1").Return(errors.New("connection refused"))

		result, err := service.Delete(ctx, testTenantID, testOrderID, doc.ID, testActorID)

		assert.NoError(t, err)
		assert.NotNil(t, result)
	})

	t.Run("system documents cannot be deleted", func(t *testing.T) {
		repo := new(MockOrderRepository)
		storage := new(MockObjectStorageService)
		service := newDocumentService(repo, storage)
		ctx := context.Background()

		order := newTestOrder(t)
		doc, _, err := order.PutFixedDocument(manufacturing.SlotInvoice, manufacturing.FileRef{
			URL:        "https://storage.example.com/bucket/inv-v1",
			StorageKey: "inv-v1",
		}, testActorID)
		require.NoError(t, err)

		repo.On("FindByIDForTenant", ctx, testTenantID, testOrderID).Return(order, nil)

		_, err = service.Delete(ctx, testTenantID, testOrderID, doc.ID, testActorID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "FORBIDDEN", domainErr.Code)
		storage.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)
	})
}

func TestDocumentService_Rename(t *testing.T) {
	repo := new(MockOrderRepository)
	storage := new(MockObjectStorageService)
	service := newDocumentService(repo, storage)
	ctx := context.Background()

	order := newTestOrder(t)
	doc, err := order.AddFlexibleDocument(manufacturing.FileRef{
		URL:        "https://storage.example.com/bucket/swatch-1",
		StorageKey: "swatch-1",
	}, "Draft", testActorID)
	require.NoError(t, err)

	repo.On("FindByIDForTenant", ctx, testTenantID, testOrderID).Return(order, nil)
	repo.On("SaveWithLock", ctx, order).Return(nil)

	result, err := service.Rename(ctx, testTenantID, testOrderID, doc.ID, testActorID, RenameDocumentRequest{Name: "Final swatch"})

	assert.NoError(t, err)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "Final swatch", result.Documents[0].Name)
}

func TestDocumentService_DownloadURL(t *testing.T) {
	t.Run("returns a presigned download URL", func(t *testing.T) {
		repo := new(MockOrderRepository)
		storage := new(MockObjectStorageService)
		service := newDocumentService(repo, storage)
		ctx := context.Background()

		order := newTestOrder(t)
		doc, err := order.AddFlexibleDocument(manufacturing.FileRef{
			URL:        "https://storage.example.com/bucket/swatch-1",
			StorageKey: "swatch-1",
		}, "Fabric swatch", testActorID)
		require.NoError(t, err)

		expiresAt := time.Now().Add(time.Hour)
		repo.On("FindByIDForTenant", ctx, testTenantID, testOrderID).Return(order, nil)
		storage.On("GenerateDownloadURL", ctx, "swatch-1", time.Hour).
			Return("https://storage.example.com/presigned-get", expiresAt, nil)

		result, err := service.DownloadURL(ctx, testTenantID, testOrderID, doc.ID)

		assert.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "https://storage.example.com/presigned-get", result.DownloadURL)
		assert.Equal(t, expiresAt, result.ExpiresAt)
	})

	t.Run("unknown document", func(t *testing.T) {
		repo := new(MockOrderRepository)
		storage := new(MockObjectStorageService)
		service := newDocumentService(repo, storage)
		ctx := context.Background()

		order := newTestOrder(t)
		repo.On("FindByIDForTenant", ctx, testTenantID, testOrderID).Return(order, nil)

		_, err := service.DownloadURL(ctx, testTenantID, testOrderID, uuid.New())

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "DOCUMENT_NOT_FOUND", domainErr.Code)
	})
}
