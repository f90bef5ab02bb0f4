package claims

import (
	"context"

	"github.com/memoralabs/memora/memora/database/models"
)

//go:generate mockgen -source=repository.go -destination=mock/repository.go -package=mock

// ClaimStore is the slice of the claim-request repository the processor
// needs.
type ClaimStore interface {
	GetByKey(ctx context.Context, requestKey string) (*models.ClaimRequest, error)
	ClaimAndMark(ctx context.Context, requestKey, claimedByUID, memoryID string) (*models.ClaimRequest, error)
	MarkExpired(ctx context.Context, requestKey string) error
}

// MemoryStore is the slice of the memory repository the processor needs.
type MemoryStore interface {
	Create(ctx context.Context, m *models.Memory) (string, error)
	Delete(ctx context.Context, id string) error
}

// OrderStore links a redeemed claim's new memory back to the order the
// claim was issued for.
type OrderStore interface {
	AttachMemory(ctx context.Context, orderID, memoryID string) error
}

// AuditSink receives security events. Implementations must not fail the
// caller; see the audit package.
type AuditSink interface {
	Append(ctx context.Context, eventType, actorUID, tenant string, detail map[string]any)
}
