package models

import (
	"time"
)

type ClaimStatus string

const (
	ClaimStatusPending ClaimStatus = "pending"
	ClaimStatusClaimed ClaimStatus = "claimed"
	ClaimStatusExpired ClaimStatus = "expired"
)

// ClaimRequest is created at purchase time and consumed exactly once by the
// claim processor. Once Status is "claimed", MemoryID is set and never
// reassigned.
type ClaimRequest struct {
	ID          string      `bson:"_id,omitempty"`
	RequestKey  string      `bson:"request_key"`
	Tenant      string      `bson:"tenant"`
	ChannelID   string      `bson:"channel_id"`
	Email       string      `bson:"email"`
	ProductType string      `bson:"product_type"`
	OrderID     string      `bson:"order_id,omitempty"`
	Status      ClaimStatus `bson:"status"`
	CreatedAt   time.Time   `bson:"created_at"`
	ClaimedAt   *time.Time  `bson:"claimed_at,omitempty"`
	ClaimedBy   string      `bson:"claimed_by_uid,omitempty"`
	MemoryID    string      `bson:"memory_id,omitempty"`
}

// ApplyDefaults normalizes a record read from the store. Documents written
// by older checkout versions may miss fields; defaults are decided here,
// at the adapter boundary, not at call sites.
func (cr *ClaimRequest) ApplyDefaults() {
	if cr.Status == "" {
		cr.Status = ClaimStatusPending
	}
	if cr.ProductType == "" {
		cr.ProductType = "standard"
	}
	if cr.CreatedAt.IsZero() {
		cr.CreatedAt = time.Now()
	}
}
