package claims

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/memoralabs/memora/memora/database/models"
	"github.com/memoralabs/memora/memora/database/repositories"
)

// Reason classifies why a redemption did not produce a memory. Callers get
// a typed code instead of a bare nil; the audit trail keeps the detail.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonNotFound       Reason = "not_found"
	ReasonTenantMismatch Reason = "tenant_mismatch"
	ReasonAlreadyClaimed Reason = "already_claimed"
	ReasonLinkExpired    Reason = "link_expired"
	ReasonStoreFailure   Reason = "store_failure"
)

// Outcome is the result of one redemption attempt.
type Outcome struct {
	Memory *models.Memory
	Reason Reason
	Err    error
}

func (o Outcome) OK() bool {
	return o.Reason == ReasonNone && o.Memory != nil
}

const (
	// DefaultLinkValidity bounds redemption from the claim request's
	// creation time, independent of the token's own window.
	DefaultLinkValidity = 72 * time.Hour

	memorySource = "claim-processor"
)

// Processor orchestrates claim redemption: tenant isolation, the validity
// window, at-most-once memory creation, and the audit trail.
type Processor struct {
	claims       ClaimStore
	memories     MemoryStore
	orders       OrderStore
	resolver     *TenantResolver
	audit        AuditSink
	linkValidity time.Duration
	now          func() time.Time
	log          *slog.Logger
}

func NewProcessor(claims ClaimStore, memories MemoryStore, orders OrderStore, resolver *TenantResolver, audit AuditSink) *Processor {
	return &Processor{
		claims:       claims,
		memories:     memories,
		orders:       orders,
		resolver:     resolver,
		audit:        audit,
		linkValidity: DefaultLinkValidity,
		now:          time.Now,
		log:          slog.With(slog.String("component", "claim_processor")),
	}
}

// SetLinkValidity overrides the redemption window. Zero or negative values
// are ignored.
func (p *Processor) SetLinkValidity(d time.Duration) {
	if d > 0 {
		p.linkValidity = d
	}
}

// SetClock injects a clock for tests.
func (p *Processor) SetClock(now func() time.Time) {
	if now != nil {
		p.now = now
	}
}

// ProcessClaimRequest redeems the claim identified by requestKey on behalf
// of actingUID. A claim issued for one tenant must never be redeemable
// from an origin resolving to another tenant/channel; that check runs
// before anything is written. Memory creation and claim consumption are
// coupled through a conditional update: a redeemer that loses the race
// deletes its just-created memory and reports ReasonAlreadyClaimed.
func (p *Processor) ProcessClaimRequest(ctx context.Context, requestKey, actingUID, origin string) Outcome {
	req, err := p.claims.GetByKey(ctx, requestKey)
	if errors.Is(err, repositories.ErrClaimNotFound) {
		return Outcome{Reason: ReasonNotFound, Err: err}
	}
	if err != nil {
		return p.storeFailure(ctx, requestKey, actingUID, "", err)
	}

	expected := p.resolver.ResolveTenantFromOrigin(origin)
	if expected.Tenant != req.Tenant || expected.ChannelID != req.ChannelID {
		p.audit.Append(ctx, models.EventCrossTenantClaimAttempt, actingUID, req.Tenant, map[string]any{
			"status":           "denied",
			"claim_key":        requestKey,
			"origin":           origin,
			"expected_tenant":  expected.Tenant,
			"expected_channel": expected.ChannelID,
			"claim_tenant":     req.Tenant,
			"claim_channel":    req.ChannelID,
		})
		return Outcome{Reason: ReasonTenantMismatch}
	}

	if req.Status != models.ClaimStatusPending {
		p.audit.Append(ctx, models.EventClaimAlreadyUsed, actingUID, req.Tenant, map[string]any{
			"claim_key": requestKey,
			"status":    string(req.Status),
		})
		return Outcome{Reason: ReasonAlreadyClaimed}
	}

	if p.now().Sub(req.CreatedAt) > p.linkValidity {
		p.audit.Append(ctx, models.EventClaimLinkExpired, actingUID, req.Tenant, map[string]any{
			"claim_key":  requestKey,
			"created_at": req.CreatedAt,
		})
		if err := p.claims.MarkExpired(ctx, requestKey); err != nil {
			p.log.Warn("Failed to mark claim expired",
				slog.String("type", "claim"),
				slog.String("claim_key", requestKey),
				slog.Any("error", err))
		}
		return Outcome{Reason: ReasonLinkExpired}
	}

	memory := &models.Memory{
		OwnerUID: actingUID,
		Tenant:   req.Tenant,
		Metadata: models.MemoryMetadata{
			ChannelID:   req.ChannelID,
			Source:      memorySource,
			ProductType: req.ProductType,
		},
		Status: models.MemoryStatusDraft,
		Design: models.DefaultDesign(),
		Blocks: []models.ContentBlock{},
	}

	memoryID, err := p.memories.Create(ctx, memory)
	if err != nil {
		return p.storeFailure(ctx, requestKey, actingUID, req.Tenant, err)
	}
	memory.ID = memoryID

	if _, err := p.claims.ClaimAndMark(ctx, requestKey, actingUID, memoryID); err != nil {
		// A concurrent redeemer won the conditional update. Compensate by
		// removing the memory this attempt created.
		if errors.Is(err, repositories.ErrAlreadyClaimed) {
			if delErr := p.memories.Delete(ctx, memoryID); delErr != nil {
				p.log.Error("Failed to delete orphaned memory after lost claim race",
					slog.String("type", "claim"),
					slog.String("memory_id", memoryID),
					slog.Any("error", delErr))
			}
			p.audit.Append(ctx, models.EventClaimAlreadyUsed, actingUID, req.Tenant, map[string]any{
				"claim_key": requestKey,
				"raced":     true,
			})
			return Outcome{Reason: ReasonAlreadyClaimed}
		}
		return p.storeFailure(ctx, requestKey, actingUID, req.Tenant, err)
	}

	// The CRM reads memory_id off the order (tag payloads, reissue
	// guard), so link it back now that the claim is consumed. The claim
	// itself already records the memory id; a failed link is recoverable
	// and must not undo the redemption.
	if req.OrderID != "" {
		if err := p.orders.AttachMemory(ctx, req.OrderID, memoryID); err != nil {
			p.log.Warn("Failed to link memory to order",
				slog.String("type", "claim"),
				slog.String("order_id", req.OrderID),
				slog.String("memory_id", memoryID),
				slog.Any("error", err))
		}
	}

	p.audit.Append(ctx, models.EventClaimProcessed, actingUID, req.Tenant, map[string]any{
		"claim_key":    requestKey,
		"memory_id":    memoryID,
		"order_id":     req.OrderID,
		"product_type": req.ProductType,
	})

	p.log.Info("Claim redeemed",
		slog.String("type", "claim"),
		slog.String("claim_key", requestKey),
		slog.String("memory_id", memoryID),
		slog.String("tenant", req.Tenant))

	return Outcome{Memory: memory}
}

func (p *Processor) storeFailure(ctx context.Context, requestKey, actingUID, tenant string, err error) Outcome {
	p.audit.Append(ctx, models.EventClaimProcessError, actingUID, tenant, map[string]any{
		"claim_key": requestKey,
		"error":     err.Error(),
	})
	p.log.Error("Claim processing failed",
		slog.String("type", "claim"),
		slog.String("claim_key", requestKey),
		slog.Any("error", err))
	return Outcome{Reason: ReasonStoreFailure, Err: err}
}
