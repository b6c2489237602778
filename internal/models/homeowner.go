package models

import (
	"time"

	"github.com/google/uuid"
)

// Homeowner contact details stay masked until a lead is assigned; only
// admins and the assigned contractor see the full record.
type Homeowner struct {
	ID              uuid.UUID  `json:"id"`
	DisplayName     string     `json:"display_name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Zip             string     `json:"zip"`
	PhoneVerifiedAt *time.Time `json:"phone_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
