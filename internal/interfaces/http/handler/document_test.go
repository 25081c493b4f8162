package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	manufacturingapp "github.com/loomworks/backend/internal/application/manufacturing"
	"github.com/loomworks/backend/internal/domain/manufacturing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockObjectStorage implements manufacturingapp.ObjectStorageService for testing
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, contentType, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	args := m.Called(ctx, storageKey)
	return args.Error(0)
}

func (m *MockObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	args := m.Called(ctx, storageKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockObjectStorage) ObjectURL(storageKey string) string {
	args := m.Called(storageKey)
	return args.String(0)
}

var _ manufacturingapp.ObjectStorageService = (*MockObjectStorage)(nil)

func setupDocumentTestRouter() (*gin.Engine, *MockOrderRepository, *MockObjectStorage, *DocumentHandler) {
	gin.SetMode(gin.TestMode)

	mockRepo := new(MockOrderRepository)
	mockStorage := new(MockObjectStorage)
	service := manufacturingapp.NewDocumentService(mockRepo, mockStorage, nil)
	handler := NewDocumentHandler(service)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		setJWTContext(c, testTenantID, testUserID)
		c.Next()
	})

	return router, mockRepo, mockStorage, handler
}

func TestDocumentHandler_InitiateUpload(t *testing.T) {
	t.Run("should hand out a presigned upload URL", func(t *testing.T) {
		router, mockRepo, mockStorage, handler := setupDocumentTestRouter()
		router.POST("/orders/:id/documents/upload-url", handler.InitiateUpload)

		order := createTestOrder(testTenantID, 1)
		expiresAt := time.Now().Add(15 * time.Minute)

		mockRepo.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)
		mockStorage.On("GenerateUploadURL", mock.Anything, mock.AnythingOfType("string"), "application/pdf", 15*time.Minute).
			Return("https://storage.example.com/upload", expiresAt, nil)

		w := performJSON(router, http.MethodPost, "/orders/"+order.ID.String()+"/documents/upload-url",
			manufacturingapp.InitiateDocumentUploadRequest{
				FileName:    "quotation.pdf",
				ContentType: "application/pdf",
			})

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "https://storage.example.com/upload", data["upload_url"])
		assert.NotEmpty(t, data["storage_key"])
	})

	t.Run("should reject disallowed content types", func(t *testing.T) {
		router, _, _, handler := setupDocumentTestRouter()
		router.POST("/orders/:id/documents/upload-url", handler.InitiateUpload)

		w := performJSON(router, http.MethodPost, "/orders/"+uuid.New().String()+"/documents/upload-url",
			manufacturingapp.InitiateDocumentUploadRequest{
				FileName:    "payload.exe",
				ContentType: "application/x-msdownload",
			})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDocumentHandler_Attach(t *testing.T) {
	t.Run("should attach an uploaded file to a fixed slot", func(t *testing.T) {
		router, mockRepo, mockStorage, handler := setupDocumentTestRouter()
		router.POST("/orders/:id/documents", handler.Attach)

		order := createTestOrder(testTenantID, 1)
		storageKey := "tenants/x/orders/y/quotation.pdf"

		mockStorage.On("ObjectExists", mock.Anything, storageKey).Return(true, nil)
		mockStorage.On("ObjectURL", storageKey).Return("https://storage.example.com/" + storageKey)
		mockRepo.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)
		mockRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

		w := performJSON(router, http.MethodPost, "/orders/"+order.ID.String()+"/documents",
			manufacturingapp.AttachDocumentRequest{
				SlotKey:    "quotation",
				StorageKey: storageKey,
				FileType:   "application/pdf",
			})

		assert.Equal(t, http.StatusCreated, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		documents := data["documents"].([]interface{})
		require.Len(t, documents, 1)
		doc := documents[0].(map[string]interface{})
		assert.Equal(t, "quotation", doc["slot_key"])
		assert.Equal(t, true, doc["is_system"])
	})

	t.Run("should refuse to attach a file that was never uploaded", func(t *testing.T) {
		router, _, mockStorage, handler := setupDocumentTestRouter()
		router.POST("/orders/:id/documents", handler.Attach)

		mockStorage.On("ObjectExists", mock.Anything, "missing-key").Return(false, nil)

		w := performJSON(router, http.MethodPost, "/orders/"+uuid.New().String()+"/documents",
			manufacturingapp.AttachDocumentRequest{
				SlotKey:    "quotation",
				StorageKey: "missing-key",
			})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should reject an unknown slot", func(t *testing.T) {
		router, mockRepo, mockStorage, handler := setupDocumentTestRouter()
		router.POST("/orders/:id/documents", handler.Attach)

		order := createTestOrder(testTenantID, 1)

		mockStorage.On("ObjectExists", mock.Anything, "some-key").Return(true, nil)
		mockStorage.On("ObjectURL", "some-key").Return("https://storage.example.com/some-key")
		mockRepo.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)

		w := performJSON(router, http.MethodPost, "/orders/"+order.ID.String()+"/documents",
			manufacturingapp.AttachDocumentRequest{
				SlotKey:    "blueprints",
				StorageKey: "some-key",
			})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDocumentHandler_DownloadURL(t *testing.T) {
	t.Run("should mint a presigned download URL", func(t *testing.T) {
		router, mockRepo, mockStorage, handler := setupDocumentTestRouter()
		router.GET("/orders/:id/documents/:documentId/download-url", handler.DownloadURL)

		order := createTestOrder(testTenantID, 1)
		storageKey := "tenants/x/orders/y/quotation.pdf"
		doc, _, err := order.PutFixedDocument(manufacturing.SlotQuotation, manufacturing.FileRef{
			URL:        "https://storage.example.com/" + storageKey,
			FileType:   "application/pdf",
			StorageKey: storageKey,
		}, testUserID)
		require.NoError(t, err)
		expiresAt := time.Now().Add(time.Hour)

		mockRepo.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)
		mockStorage.On("GenerateDownloadURL", mock.Anything, storageKey, time.Hour).
			Return("https://storage.example.com/signed", expiresAt, nil)

		w := performJSON(router, http.MethodGet,
			"/orders/"+order.ID.String()+"/documents/"+doc.ID.String()+"/download-url", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "https://storage.example.com/signed", data["download_url"])
	})

	t.Run("should return 404 for an unknown document", func(t *testing.T) {
		router, mockRepo, _, handler := setupDocumentTestRouter()
		router.GET("/orders/:id/documents/:documentId/download-url", handler.DownloadURL)

		order := createTestOrder(testTenantID, 1)
		mockRepo.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)

		w := performJSON(router, http.MethodGet,
			"/orders/"+order.ID.String()+"/documents/"+uuid.New().String()+"/download-url", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDocumentHandler_Delete(t *testing.T) {
	t.Run("should refuse to delete a fixed-slot document", func(t *testing.T) {
		router, mockRepo, _, handler := setupDocumentTestRouter()
		router.DELETE("/orders/:id/documents/:documentId", handler.Delete)

		order := createTestOrder(testTenantID, 1)
		doc, _, err := order.PutFixedDocument(manufacturing.SlotQuotation, manufacturing.FileRef{
			URL: "https://storage.example.com/quotation.pdf",
		}, testUserID)
		require.NoError(t, err)

		mockRepo.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)

		w := performJSON(router, http.MethodDelete,
			"/orders/"+order.ID.String()+"/documents/"+doc.ID.String(), nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
