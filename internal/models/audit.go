package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit event types written by admin actions.
const (
	AuditAdminAddCredits  = "admin_add_credits"
	AuditAdminForceAccept = "admin_force_accept"
	AuditAdminMarkSpam    = "admin_mark_spam"
	AuditAdminResetLead   = "admin_reset_lead"
)

type AuditEvent struct {
	ID                 uuid.UUID  `json:"id"`
	EventType          string     `json:"event_type"`
	ActorID            uuid.UUID  `json:"actor_id"`
	TargetContractorID *uuid.UUID `json:"target_contractor_id,omitempty"`
	LeadID             *uuid.UUID `json:"lead_id,omitempty"`
	Amount             *int       `json:"amount,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}
