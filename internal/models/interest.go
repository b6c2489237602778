package models

import (
	"time"

	"github.com/google/uuid"
)

// Interest status enums. held is the only non-terminal state; captured is
// permanent for the (contractor, lead) pair, every other terminal state can
// be re-held by a fresh Hold call.
const (
	InterestStatusHeld      = "held"
	InterestStatusCaptured  = "captured"
	InterestStatusReleased  = "released"
	InterestStatusExpired   = "expired"
	InterestStatusWithdrawn = "withdrawn"
)

// Release reasons stamped when an interest leaves held.
const (
	ReleaseReasonTTLExpired         = "ttl_expired"
	ReleaseReasonContractorWithdrew = "contractor_withdrew"
	ReleaseReasonHomeownerSelected  = "homeowner_selected_other"
	ReleaseReasonLeadMarkedSpam     = "lead_marked_spam"
)

// Interest ties one contractor to one lead. At most one non-terminal
// interest exists per (contractor, lead) pair; re-holding reuses the row.
type Interest struct {
	ID            uuid.UUID  `json:"id"`
	LeadID        uuid.UUID  `json:"lead_id"`
	ContractorID  uuid.UUID  `json:"contractor_id"`
	Status        string     `json:"status"`
	HeldAt        time.Time  `json:"held_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
	CapturedAt    *time.Time `json:"captured_at,omitempty"`
	ReleasedAt    *time.Time `json:"released_at,omitempty"`
	ExpiredAt     *time.Time `json:"expired_at,omitempty"`
	WithdrawnAt   *time.Time `json:"withdrawn_at,omitempty"`
	ReleaseReason *string    `json:"release_reason,omitempty"`
}
