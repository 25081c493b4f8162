package manufacturing

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/loomworks/backend/internal/domain/manufacturing"
	"github.com/loomworks/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DocumentServiceConfig holds configuration for the document service
type DocumentServiceConfig struct {
	// UploadURLExpiry is the duration for which upload URLs are valid
	UploadURLExpiry time.Duration
	// DownloadURLExpiry is the duration for which download URLs are valid
	DownloadURLExpiry time.Duration
}

// DefaultDocumentServiceConfig returns the default configuration
func DefaultDocumentServiceConfig() DocumentServiceConfig {
	return DocumentServiceConfig{
		UploadURLExpiry:   15 * time.Minute,
		DownloadURLExpiry: 1 * time.Hour,
	}
}

// allowedContentTypes is the whitelist of uploadable document content types
var allowedContentTypes = map[string]bool{
	"application/pdf":    true,
	"image/jpeg":         true,
	"image/png":          true,
	"image/webp":         true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/plain": true,
	"text/csv":   true,
}

// DocumentService handles order document operations: presigned uploads,
// fixed-slot placement, flexible attachments and downloads
type DocumentService struct {
	orderRepo      manufacturing.OrderRepository
	storageService ObjectStorageService
	eventPublisher shared.EventPublisher
	config         DocumentServiceConfig
	logger         *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(orderRepo manufacturing.OrderRepository, storageService ObjectStorageService, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		orderRepo:      orderRepo,
		storageService: storageService,
		config:         DefaultDocumentServiceConfig(),
		logger:         logger,
	}
}

// SetConfig sets the service configuration
func (s *DocumentService) SetConfig(config DocumentServiceConfig) {
	s.config = config
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *DocumentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// InitiateUpload returns a presigned upload URL for an order document. The
// client uploads directly to storage and then calls Attach with the returned
// storage key.
func (s *DocumentService) InitiateUpload(ctx context.Context, tenantID, orderID uuid.UUID, req InitiateDocumentUploadRequest) (*InitiateDocumentUploadResponse, error) {
	if !allowedContentTypes[req.ContentType] {
		return nil, shared.NewDomainError("DISALLOWED_CONTENT_TYPE",
			fmt.Sprintf("Content type %q is not allowed. Allowed types: images, PDF, Office documents, and text files.", req.ContentType))
	}

	// Validate the order exists before handing out an upload URL
	if _, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID); err != nil {
		return nil, err
	}

	storageKey := s.generateStorageKey(tenantID, orderID, req.FileName)
	uploadURL, expiresAt, err := s.storageService.GenerateUploadURL(ctx, storageKey, req.ContentType, s.config.UploadURLExpiry)
	if err != nil {
		return nil, shared.NewDomainError("UPLOAD_URL_FAILED", "Failed to generate upload URL")
	}

	return &InitiateDocumentUploadResponse{
		StorageKey: storageKey,
		UploadURL:  uploadURL,
		ExpiresAt:  expiresAt,
	}, nil
}

// Attach places an uploaded file on an order: into one of the four fixed
// slots, or as a flexible attachment when SlotKey is "custom". Replacing a
// fixed slot schedules the previous blob for deletion.
func (s *DocumentService) Attach(ctx context.Context, tenantID, orderID, actorID uuid.UUID, req AttachDocumentRequest) (*OrderResponse, error) {
	exists, err := s.storageService.ObjectExists(ctx, req.StorageKey)
	if err != nil {
		return nil, shared.NewDomainError("STORAGE_CHECK_FAILED", "Failed to verify upload")
	}
	if !exists {
		return nil, shared.NewDomainError("UPLOAD_NOT_FOUND",
			"File not found in storage. Please upload the file first.")
	}

	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	ref := manufacturing.FileRef{
		URL:        s.storageService.ObjectURL(req.StorageKey),
		FileType:   req.FileType,
		StorageKey: req.StorageKey,
	}

	slot := manufacturing.SlotKey(req.SlotKey)
	var replacedKey string
	if slot.IsFixed() {
		_, replacedKey, err = order.PutFixedDocument(slot, ref, actorID)
	} else if slot == manufacturing.SlotCustom {
		_, err = order.AddFlexibleDocument(ref, req.Name, actorID)
	} else {
		err = shared.NewDomainError("INVALID_SLOT", fmt.Sprintf("Unknown document slot %q", req.SlotKey))
	}
	if err != nil {
		return nil, err
	}

	// Save with optimistic locking
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	s.deleteBlob(ctx, replacedKey)
	s.publishEvents(ctx, order)

	response := ToOrderResponse(order)
	return &response, nil
}

// Rename changes the display name of a flexible document
func (s *DocumentService) Rename(ctx context.Context, tenantID, orderID, documentID, actorID uuid.UUID, req RenameDocumentRequest) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	if _, err := order.RenameDocument(documentID, req.Name, actorID); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	response := ToOrderResponse(order)
	return &response, nil
}

// Delete removes a flexible document from an order and schedules its blob
// for deletion
func (s *DocumentService) Delete(ctx context.Context, tenantID, orderID, documentID, actorID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	storageKey, err := order.DeleteDocument(documentID, actorID)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	s.deleteBlob(ctx, storageKey)

	response := ToOrderResponse(order)
	return &response, nil
}

// DownloadURL returns a short-lived presigned download URL for a document
func (s *DocumentService) DownloadURL(ctx context.Context, tenantID, orderID, documentID uuid.UUID) (*DocumentDownloadResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	doc := order.GetDocument(documentID)
	if doc == nil {
		return nil, shared.NewDomainError("DOCUMENT_NOT_FOUND", "Document not found on this order")
	}
	if doc.StorageKey == "" {
		// Externally hosted file, hand back the stored URL as-is
		return &DocumentDownloadResponse{DownloadURL: doc.URL}, nil
	}

	url, expiresAt, err := s.storageService.GenerateDownloadURL(ctx, doc.StorageKey, s.config.DownloadURLExpiry)
	if err != nil {
		return nil, shared.NewDomainError("DOWNLOAD_URL_FAILED", "Failed to generate download URL")
	}

	return &DocumentDownloadResponse{DownloadURL: url, ExpiresAt: expiresAt}, nil
}

// deleteBlob removes a replaced or detached blob. Best effort: the aggregate
// is already saved, so a dangling blob is preferable to a failed request.
func (s *DocumentService) deleteBlob(ctx context.Context, storageKey string) {
	if storageKey == "" {
		return
	}
	if err := s.storageService.DeleteObject(ctx, storageKey); err != nil {
		s.logger.Warn("Failed to delete document blob",
			zap.String("storage_key", storageKey),
			zap.Error(err))
	}
}

// publishEvents publishes pending domain events for cross-context
// integration. Event handling is async; failures never fail the operation.
func (s *DocumentService) publishEvents(ctx context.Context, order *manufacturing.Order) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range order.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			continue
		}
	}
	order.ClearDomainEvents()
}

// generateStorageKey builds a collision-free object key scoped to the tenant
// and order
func (s *DocumentService) generateStorageKey(tenantID, orderID uuid.UUID, fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	base = strings.ReplaceAll(base, " ", "_")
	return fmt.Sprintf("tenants/%s/orders/%s/%s-%s", tenantID, orderID, uuid.New().String()[:8], base)
}
