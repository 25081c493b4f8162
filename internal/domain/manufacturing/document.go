package manufacturing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loomworks/backend/internal/domain/shared"
)

// SlotKey identifies the logical slot a document occupies on an order.
// Four fixed (system) slots exist; everything else is a flexible attachment.
type SlotKey string

const (
	SlotQuotation          SlotKey = "quotation"
	SlotProformaInvoice    SlotKey = "proforma-invoice"
	SlotManufacturingSheet SlotKey = "manufacturing-sheet"
	SlotInvoice            SlotKey = "invoice"

	// SlotCustom marks a flexible attachment outside the fixed slots
	SlotCustom SlotKey = "custom"
)

// MaxFlexibleDocuments caps the number of flexible attachments per order
const MaxFlexibleDocuments = 2

// IsFixed returns true if the key names one of the four system slots
func (k SlotKey) IsFixed() bool {
	switch k {
	case SlotQuotation, SlotProformaInvoice, SlotManufacturingSheet, SlotInvoice:
		return true
	}
	return false
}

// FixedSlotKeys returns the four system slot keys in display order
func FixedSlotKeys() []SlotKey {
	return []SlotKey{SlotQuotation, SlotProformaInvoice, SlotManufacturingSheet, SlotInvoice}
}

// slotDisplayName maps a fixed slot to its human-readable label
func slotDisplayName(key SlotKey) string {
	switch key {
	case SlotQuotation:
		return "Quotation"
	case SlotProformaInvoice:
		return "Proforma Invoice"
	case SlotManufacturingSheet:
		return "Manufacturing Sheet"
	case SlotInvoice:
		return "Invoice"
	}
	return string(key)
}

// FileRef points at an externally stored file
type FileRef struct {
	URL        string
	FileType   string
	StorageKey string
}

// Document is a file attached to an order, either occupying one of the four
// fixed system slots or a flexible attachment slot
type Document struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	SlotKey    SlotKey   `json:"slot_key"`
	IsSystem   bool      `json:"is_system"`
	URL        string    `json:"url"`
	FileType   string    `json:"file_type"`
	StorageKey string    `json:"storage_key,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PutFixedDocument places a file into one of the four fixed slots. If the
// slot is already occupied the document keeps its identity and only its file
// content is swapped; the previous storage key is returned so the caller can
// schedule the old blob for deletion. An empty slot gets a new system
// document.
func (o *Order) PutFixedDocument(slot SlotKey, ref FileRef, actor uuid.UUID) (*Document, string, error) {
	if !slot.IsFixed() {
		return nil, "", shared.NewDomainError("INVALID_SLOT", fmt.Sprintf("%q is not a fixed document slot", slot))
	}
	if ref.URL == "" {
		return nil, "", shared.NewDomainError("INVALID_FILE", "Document file URL is required")
	}

	now := time.Now()

	if doc := o.DocumentBySlot(slot); doc != nil {
		replacedKey := doc.StorageKey
		doc.URL = ref.URL
		doc.FileType = ref.FileType
		doc.StorageKey = ref.StorageKey
		doc.UpdatedAt = now
		o.UpdatedAt = now
		o.recordActivity("document_replaced",
			fmt.Sprintf("Replaced %s document", slotDisplayName(slot)), actor)
		o.AddDomainEvent(NewOrderDocumentAttachedEvent(o, doc))
		return doc, replacedKey, nil
	}

	doc := Document{
		ID:         uuid.New(),
		Name:       slotDisplayName(slot),
		SlotKey:    slot,
		IsSystem:   true,
		URL:        ref.URL,
		FileType:   ref.FileType,
		StorageKey: ref.StorageKey,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	o.Documents = append(o.Documents, doc)
	o.UpdatedAt = now
	o.recordActivity("document_attached",
		fmt.Sprintf("Attached %s document", slotDisplayName(slot)), actor)
	o.AddDomainEvent(NewOrderDocumentAttachedEvent(o, &o.Documents[len(o.Documents)-1]))

	return &o.Documents[len(o.Documents)-1], "", nil
}

// AddFlexibleDocument attaches an ad hoc document. At most
// MaxFlexibleDocuments flexible documents may exist concurrently.
func (o *Order) AddFlexibleDocument(ref FileRef, name string, actor uuid.UUID) (*Document, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Document name is required")
	}
	if ref.URL == "" {
		return nil, shared.NewDomainError("INVALID_FILE", "Document file URL is required")
	}
	if o.FlexibleDocumentCount() >= MaxFlexibleDocuments {
		return nil, shared.NewDomainError("SLOT_LIMIT_EXCEEDED",
			fmt.Sprintf("At most %d additional documents are allowed per order", MaxFlexibleDocuments))
	}

	now := time.Now()
	doc := Document{
		ID:         uuid.New(),
		Name:       name,
		SlotKey:    SlotCustom,
		IsSystem:   false,
		URL:        ref.URL,
		FileType:   ref.FileType,
		StorageKey: ref.StorageKey,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	o.Documents = append(o.Documents, doc)
	o.UpdatedAt = now
	o.recordActivity("document_attached", fmt.Sprintf("Attached document %q", name), actor)
	o.AddDomainEvent(NewOrderDocumentAttachedEvent(o, &o.Documents[len(o.Documents)-1]))

	return &o.Documents[len(o.Documents)-1], nil
}

// RenameDocument changes the display name of a flexible document.
// Fixed-slot documents can only be replaced, never renamed.
func (o *Order) RenameDocument(documentID uuid.UUID, name string, actor uuid.UUID) (*Document, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Document name is required")
	}

	doc := o.documentByID(documentID)
	if doc == nil {
		return nil, shared.NewDomainError("DOCUMENT_NOT_FOUND", "Document not found on this order")
	}
	if doc.IsSystem {
		return nil, shared.NewDomainError("FORBIDDEN", "System documents cannot be renamed")
	}
	if doc.URL == "" {
		return nil, shared.NewDomainError("INVALID_STATE", "Document has no uploaded file")
	}

	previous := doc.Name
	doc.Name = name
	doc.UpdatedAt = time.Now()
	o.UpdatedAt = doc.UpdatedAt
	o.recordActivity("document_renamed", fmt.Sprintf("Renamed document %q to %q", previous, name), actor)

	return doc, nil
}

// DeleteDocument removes a flexible document from the order and returns its
// storage key so the caller can schedule the blob for deletion. Fixed-slot
// documents cannot be deleted.
func (o *Order) DeleteDocument(documentID uuid.UUID, actor uuid.UUID) (string, error) {
	for idx, doc := range o.Documents {
		if doc.ID == documentID {
			if doc.IsSystem {
				return "", shared.NewDomainError("FORBIDDEN", "System documents cannot be deleted")
			}
			o.Documents = append(o.Documents[:idx], o.Documents[idx+1:]...)
			o.UpdatedAt = time.Now()
			o.recordActivity("document_deleted", fmt.Sprintf("Deleted document %q", doc.Name), actor)
			return doc.StorageKey, nil
		}
	}
	return "", shared.NewDomainError("DOCUMENT_NOT_FOUND", "Document not found on this order")
}

// FlexibleDocumentCount returns the number of flexible documents on the order
func (o *Order) FlexibleDocumentCount() int {
	count := 0
	for _, doc := range o.Documents {
		if !doc.IsSystem {
			count++
		}
	}
	return count
}

// DocumentBySlot returns the document occupying a fixed slot, or nil
func (o *Order) DocumentBySlot(slot SlotKey) *Document {
	for idx := range o.Documents {
		if o.Documents[idx].SlotKey == slot && o.Documents[idx].IsSystem {
			return &o.Documents[idx]
		}
	}
	return nil
}

// GetDocument returns a document by its ID
func (o *Order) GetDocument(documentID uuid.UUID) *Document {
	return o.documentByID(documentID)
}

func (o *Order) documentByID(documentID uuid.UUID) *Document {
	for idx := range o.Documents {
		if o.Documents[idx].ID == documentID {
			return &o.Documents[idx]
		}
	}
	return nil
}
