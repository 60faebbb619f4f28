package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/virajbhatt/cardintel/constants"
)

// UsageMetadata carries observability detail alongside a usage record.
type UsageMetadata struct {
	ImageSizes          []int64 `json:"image_sizes,omitempty"`
	ProcessingTimeMs    int64   `json:"processing_time_ms,omitempty"`
	ExtractedTextLength int     `json:"extracted_text_length,omitempty"`
}

// UsageRecord is one append-only row in the usage ledger: one external-call
// attempt, successful or not. Rows are never mutated after creation.
type UsageRecord struct {
	ID           uuid.UUID             `json:"id"`
	RequesterID  string                `json:"requester_id"`
	ServiceKind  constants.ServiceKind `json:"service_kind"`
	UnitsUsed    int                   `json:"units_used"`
	Success      bool                  `json:"success"`
	ErrorMessage string                `json:"error_message,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	Metadata     UsageMetadata         `json:"metadata"`
}
