package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Security event types emitted by the claim processor and route guards.
const (
	EventCrossTenantClaimAttempt = "cross_tenant_claim_attempt"
	EventClaimProcessed          = "claim_processed_memory_created"
	EventClaimProcessError       = "process_claim_request_error"
	EventClaimLinkExpired        = "claim_link_expired"
	EventClaimAlreadyUsed        = "claim_already_used"
	EventStaffAccessDenied       = "staff_access_denied"
)

// SecurityEvent is append-only: rows are inserted and never mutated or
// deleted by this service.
type SecurityEvent struct {
	bun.BaseModel `bun:"table:security_events,alias:se"`

	ID        int64          `bun:"id,pk,autoincrement" json:"id"`
	EventType string         `bun:"event_type,notnull" json:"event_type"`
	ActorUID  string         `bun:"actor_uid" json:"actor_uid"`
	Tenant    string         `bun:"tenant" json:"tenant"`
	Detail    map[string]any `bun:"detail,type:jsonb" json:"detail"`
	Timestamp time.Time      `bun:"timestamp,notnull,default:current_timestamp" json:"timestamp"`
}
