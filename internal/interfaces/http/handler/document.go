package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	manufacturingapp "github.com/loomworks/backend/internal/application/manufacturing"
)

// DocumentHandler handles order document API endpoints. Files never travel
// through this API: uploads go straight to object storage against a presigned
// URL, and the document is attached afterwards by storage key.
type DocumentHandler struct {
	BaseHandler
	documentService *manufacturingapp.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documentService *manufacturingapp.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// InitiateUpload handles POST /manufacturing/orders/:id/documents/upload-url
func (h *DocumentHandler) InitiateUpload(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req manufacturingapp.InitiateDocumentUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.documentService.InitiateUpload(c.Request.Context(), tenantID, orderID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Attach handles POST /manufacturing/orders/:id/documents
func (h *DocumentHandler) Attach(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req manufacturingapp.AttachDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	order, err := h.documentService.Attach(c.Request.Context(), tenantID, orderID, actorID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, order)
}

// Rename handles PUT /manufacturing/orders/:id/documents/:documentId
func (h *DocumentHandler) Rename(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	documentID, err := uuid.Parse(c.Param("documentId"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	var req manufacturingapp.RenameDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	order, err := h.documentService.Rename(c.Request.Context(), tenantID, orderID, documentID, actorID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// Delete handles DELETE /manufacturing/orders/:id/documents/:documentId
func (h *DocumentHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	documentID, err := uuid.Parse(c.Param("documentId"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	order, err := h.documentService.Delete(c.Request.Context(), tenantID, orderID, documentID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// DownloadURL handles GET /manufacturing/orders/:id/documents/:documentId/download-url
func (h *DocumentHandler) DownloadURL(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	documentID, err := uuid.Parse(c.Param("documentId"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	resp, err := h.documentService.DownloadURL(c.Request.Context(), tenantID, orderID, documentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}
