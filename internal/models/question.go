package models

import (
	"time"

	"github.com/google/uuid"
)

// LeadQuestion is a sanitized pre-acceptance question from a contractor
// holding an interest on the lead.
type LeadQuestion struct {
	ID             uuid.UUID `json:"id"`
	LeadID         uuid.UUID `json:"lead_id"`
	ContractorID   uuid.UUID `json:"contractor_id"`
	ContractorName string    `json:"contractor_name"`
	TemplateID     string    `json:"template_id"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}
