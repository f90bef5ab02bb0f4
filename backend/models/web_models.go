package models

import (
	"time"

	"github.com/memoralabs/memora/memora/database/models"
)

// StaffSession represents a staff session for web authentication
type StaffSession struct {
	UID         string           `json:"uid"`
	Email       string           `json:"email"`
	DisplayName string           `json:"display_name"`
	Role        models.StaffRole `json:"role"`
	Permissions map[string]bool  `json:"permissions"`
	AdminTenant string           `json:"admin_tenant,omitempty"`
	ExpiresAt   time.Time        `json:"expires_at"`
}

// LoginRequest carries the credentials for a staff login. AccessCode is
// issued out-of-band by the memora-admin CLI.
type LoginRequest struct {
	UID        string `json:"uid"`
	AccessCode string `json:"access_code"`
}

// RedeemRequest is the public claim redemption payload.
type RedeemRequest struct {
	Token string `json:"token"`
}

// RedeemResponse reports the result of one redemption attempt.
type RedeemResponse struct {
	MemoryID     string `json:"memory_id,omitempty"`
	PublicPageID string `json:"public_page_id,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// TokenPreview is the decoded, non-sensitive view of a claim token used by
// the claim landing page before the customer commits to redeeming.
type TokenPreview struct {
	Email       string `json:"email"`
	Tenant      string `json:"tenant"`
	ChannelID   string `json:"channel_id"`
	IssuedAt    int64  `json:"issued_at"`
	ExpiresAt   int64  `json:"expires_at"`
	ProductType string `json:"product_type,omitempty"`
}

// MemoryUpdateRequest represents an authoring update to a memory page.
// Nil fields are left untouched.
type MemoryUpdateRequest struct {
	Title       *string               `json:"title,omitempty"`
	Description *string               `json:"description,omitempty"`
	Design      *models.MemoryDesign  `json:"design,omitempty"`
	Blocks      []models.ContentBlock `json:"blocks,omitempty"`
}

// OrderCreateRequest represents a manually entered order.
type OrderCreateRequest struct {
	Tenant        string `json:"tenant"`
	ChannelID     string `json:"channel_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	ProductType   string `json:"product_type"`
}

// ClaimLinkResponse is returned when staff issue a claim link for an order.
type ClaimLinkResponse struct {
	ClaimKey  string `json:"claim_key"`
	Token     string `json:"token"`
	Link      string `json:"link"`
	ExpiresAt int64  `json:"expires_at"`
}

// TagWriteRequest records the serial of the NFC tag written for an order.
type TagWriteRequest struct {
	TagSerial string `json:"tag_serial"`
}

// StaffUpsertRequest creates or updates a staff account.
type StaffUpsertRequest struct {
	UID         string           `json:"uid,omitempty"`
	Email       string           `json:"email"`
	DisplayName string           `json:"display_name"`
	Role        models.StaffRole `json:"role"`
	Permissions map[string]bool  `json:"permissions,omitempty"`
	AdminTenant string           `json:"admin_tenant,omitempty"`
}

// DashboardStats aggregates the counters shown on the CRM landing page.
type DashboardStats struct {
	TotalOrders       int64 `json:"total_orders"`
	PendingClaims     int64 `json:"pending_claims"`
	ClaimedClaims     int64 `json:"claimed_claims"`
	DraftMemories     int64 `json:"draft_memories"`
	PublishedMemories int64 `json:"published_memories"`
	SecurityEvents24h int   `json:"security_events_24h"`
}

// PublicPageDTO is the published view of a memory page. Owner identity is
// deliberately absent.
type PublicPageDTO struct {
	PublicPageID string                `json:"public_page_id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Design       models.MemoryDesign   `json:"design"`
	Blocks       []models.ContentBlock `json:"blocks"`
}

// NewPublicPageDTO strips a memory down to its public representation.
func NewPublicPageDTO(m *models.Memory) *PublicPageDTO {
	return &PublicPageDTO{
		PublicPageID: m.PublicPageID,
		Title:        m.Title,
		Description:  m.Description,
		Design:       m.Design,
		Blocks:       m.Blocks,
	}
}
