package models

import (
	"time"

	"github.com/google/uuid"
)

// Lead status enums. A lead is terminal once assigned or spam; only an
// explicit admin reset returns it to open.
const (
	LeadStatusOpen     = "open"
	LeadStatusAssigned = "assigned"
	LeadStatusSpam     = "spam"
)

type Lead struct {
	ID                   uuid.UUID  `json:"id"`
	HomeownerID          uuid.UUID  `json:"homeowner_id"`
	Zip                  string     `json:"zip"`
	BudgetMin            *int       `json:"budget_min,omitempty"`
	BudgetMax            *int       `json:"budget_max,omitempty"`
	Vibe                 *string    `json:"vibe,omitempty"`
	ChangeLevel          *string    `json:"change_level,omitempty"`
	MajorCategories      []string   `json:"major_categories"`
	RequiredTags         []string   `json:"required_tags"`
	BeforeImageURL       string     `json:"before_image_url"`
	AfterImageURL        string     `json:"after_image_url"`
	Status               string     `json:"status"`
	AssignedContractorID *uuid.UUID `json:"assigned_contractor_id,omitempty"`
	AcceptedAt           *time.Time `json:"accepted_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}
