package model

import (
	"time"

	"github.com/google/uuid"
)

// DocumentID is a UUID-based identifier for an ingested source document
type DocumentID string

// NewDocumentID generates a new UUID v4 DocumentID
func NewDocumentID() DocumentID {
	return DocumentID(uuid.New().String())
}

// DocumentFormat identifies the wire format of a source document
type DocumentFormat string

const (
	DocumentFormatFHIR DocumentFormat = "fhir_bundle"
	DocumentFormatCCDA DocumentFormat = "ccda_xml"
)

// DocumentMetadata describes one ingested source document
type DocumentMetadata struct {
	ID         DocumentID     `json:"id"`
	FileName   string         `json:"file_name"`
	Format     DocumentFormat `json:"format"`
	IngestedAt time.Time      `json:"ingested_at"`
	SizeBytes  int64          `json:"size_bytes,omitempty"`
}
