package entity

import (
	"time"

	"github.com/google/uuid"
)

// ClientRecord is the read-only view of an existing client used for
// duplicate detection: company name plus every contact person on file.
type ClientRecord struct {
	ID          uuid.UUID       `json:"id"`
	CompanyName string          `json:"company_name"`
	Contacts    []ContactPerson `json:"contacts"`
	CreatedAt   time.Time       `json:"created_at"`
}
