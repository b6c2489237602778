package models

import (
	"time"

	"github.com/google/uuid"
)

// Credit ledger entry_type enums. lead_capture is the only negative entry
// the engine writes; it is appended exactly once per winner selection.
const (
	CreditEntryPurchase        = "purchase"
	CreditEntryAdminAdjustment = "admin_adjustment"
	CreditEntryLeadCapture     = "lead_capture"
)

// CreditEntry is an immutable, append-only ledger row. A contractor's
// balance is the sum of its deltas; it is never stored as a mutable field.
type CreditEntry struct {
	ID           uuid.UUID  `json:"id"`
	ContractorID uuid.UUID  `json:"contractor_id"`
	LeadID       *uuid.UUID `json:"lead_id,omitempty"`
	EntryType    string     `json:"entry_type"`
	Delta        int        `json:"delta"`
	Note         *string    `json:"note,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
