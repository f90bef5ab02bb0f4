package claims

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/memoralabs/memora/memora/claims/mock"
	"github.com/memoralabs/memora/memora/database/models"
	"github.com/memoralabs/memora/memora/database/repositories"
	"go.uber.org/mock/gomock"
)

const (
	testKey    = "claim-key-1"
	testUID    = "uid-42"
	testOrigin = "https://pages.evermark.app"
)

func pendingRequest(age time.Duration, now time.Time) *models.ClaimRequest {
	return &models.ClaimRequest{
		ID:          "cr-1",
		RequestKey:  testKey,
		Tenant:      "evermark",
		ChannelID:   "lp-1",
		Email:       "anna@example.com",
		ProductType: "plaque-nfc",
		Status:      models.ClaimStatusPending,
		CreatedAt:   now.Add(-age),
	}
}

func newTestProcessor(t *testing.T, now time.Time) (*Processor, *mock.MockClaimStore, *mock.MockMemoryStore, *mock.MockOrderStore, *mock.MockAuditSink) {
	ctrl := gomock.NewController(t)
	claimStore := mock.NewMockClaimStore(ctrl)
	memoryStore := mock.NewMockMemoryStore(ctrl)
	orderStore := mock.NewMockOrderStore(ctrl)
	auditSink := mock.NewMockAuditSink(ctrl)

	p := NewProcessor(claimStore, memoryStore, orderStore, testResolver(), auditSink)
	p.SetClock(func() time.Time { return now })
	return p, claimStore, memoryStore, orderStore, auditSink
}

func TestProcessClaimRequest_TenantMismatch(t *testing.T) {
	now := time.Now()
	p, claimStore, _, _, auditSink := newTestProcessor(t, now)

	req := pendingRequest(time.Hour, now)
	req.Tenant = "partnerco"
	req.ChannelID = "lp-9"

	claimStore.EXPECT().
		GetByKey(gomock.Any(), testKey).
		Return(req, nil)

	// Exactly one denied event; no memory is ever created.
	auditSink.EXPECT().
		Append(gomock.Any(), models.EventCrossTenantClaimAttempt, testUID, "partnerco", gomock.Any()).
		Do(func(_ context.Context, _, _, _ string, detail map[string]any) {
			if detail["status"] != "denied" {
				t.Errorf("event status = %v, want denied", detail["status"])
			}
		}).
		Times(1)

	outcome := p.ProcessClaimRequest(context.Background(), testKey, testUID, testOrigin)
	if outcome.Reason != ReasonTenantMismatch {
		t.Errorf("Reason = %q, want %q", outcome.Reason, ReasonTenantMismatch)
	}
	if outcome.Memory != nil {
		t.Error("Memory should be nil on tenant mismatch")
	}
}

func TestProcessClaimRequest_Success(t *testing.T) {
	now := time.Now()
	p, claimStore, memoryStore, _, auditSink := newTestProcessor(t, now)

	req := pendingRequest(time.Hour, now)

	claimStore.EXPECT().
		GetByKey(gomock.Any(), testKey).
		Return(req, nil)

	memoryStore.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, m *models.Memory) (string, error) {
			if m.Status != models.MemoryStatusDraft {
				t.Errorf("memory status = %q, want draft", m.Status)
			}
			if len(m.Blocks) != 0 {
				t.Errorf("memory blocks = %d, want empty", len(m.Blocks))
			}
			if m.Metadata.Source != "claim-processor" {
				t.Errorf("metadata source = %q, want claim-processor", m.Metadata.Source)
			}
			if m.Metadata.ProductType != "plaque-nfc" {
				t.Errorf("metadata product type = %q, want plaque-nfc", m.Metadata.ProductType)
			}
			if m.OwnerUID != testUID {
				t.Errorf("owner uid = %q, want %q", m.OwnerUID, testUID)
			}
			return "mem-1", nil
		})

	claimStore.EXPECT().
		ClaimAndMark(gomock.Any(), testKey, testUID, "mem-1").
		Return(&models.ClaimRequest{
			RequestKey: testKey,
			Status:     models.ClaimStatusClaimed,
			ClaimedBy:  testUID,
			MemoryID:   "mem-1",
		}, nil)

	auditSink.EXPECT().
		Append(gomock.Any(), models.EventClaimProcessed, testUID, "evermark", gomock.Any()).
		Times(1)

	outcome := p.ProcessClaimRequest(context.Background(), testKey, testUID, testOrigin)
	if !outcome.OK() {
		t.Fatalf("outcome not OK: reason=%q err=%v", outcome.Reason, outcome.Err)
	}
	if outcome.Memory.ID != "mem-1" {
		t.Errorf("memory id = %q, want mem-1", outcome.Memory.ID)
	}
}

func TestProcessClaimRequest_ValidityWindow(t *testing.T) {
	tests := []struct {
		name       string
		age        time.Duration
		wantReason Reason
	}{
		{"71 hours old is accepted", 71 * time.Hour, ReasonNone},
		{"73 hours old is rejected", 73 * time.Hour, ReasonLinkExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Now()
			p, claimStore, memoryStore, _, auditSink := newTestProcessor(t, now)

			claimStore.EXPECT().
				GetByKey(gomock.Any(), testKey).
				Return(pendingRequest(tt.age, now), nil)

			if tt.wantReason == ReasonLinkExpired {
				auditSink.EXPECT().
					Append(gomock.Any(), models.EventClaimLinkExpired, testUID, "evermark", gomock.Any()).
					Times(1)
				claimStore.EXPECT().
					MarkExpired(gomock.Any(), testKey).
					Return(nil)
			} else {
				memoryStore.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Return("mem-1", nil)
				claimStore.EXPECT().
					ClaimAndMark(gomock.Any(), testKey, testUID, "mem-1").
					Return(&models.ClaimRequest{}, nil)
				auditSink.EXPECT().
					Append(gomock.Any(), models.EventClaimProcessed, testUID, "evermark", gomock.Any()).
					Times(1)
			}

			outcome := p.ProcessClaimRequest(context.Background(), testKey, testUID, testOrigin)
			if outcome.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", outcome.Reason, tt.wantReason)
			}
		})
	}
}

func TestProcessClaimRequest_AlreadyClaimedStatus(t *testing.T) {
	now := time.Now()
	p, claimStore, _, _, auditSink := newTestProcessor(t, now)

	req := pendingRequest(time.Hour, now)
	req.Status = models.ClaimStatusClaimed
	req.MemoryID = "mem-existing"

	claimStore.EXPECT().
		GetByKey(gomock.Any(), testKey).
		Return(req, nil)

	auditSink.EXPECT().
		Append(gomock.Any(), models.EventClaimAlreadyUsed, testUID, "evermark", gomock.Any()).
		Times(1)

	outcome := p.ProcessClaimRequest(context.Background(), testKey, testUID, testOrigin)
	if outcome.Reason != ReasonAlreadyClaimed {
		t.Errorf("Reason = %q, want %q", outcome.Reason, ReasonAlreadyClaimed)
	}
}

func TestProcessClaimRequest_LostRaceDeletesMemory(t *testing.T) {
	now := time.Now()
	p, claimStore, memoryStore, _, auditSink := newTestProcessor(t, now)

	claimStore.EXPECT().
		GetByKey(gomock.Any(), testKey).
		Return(pendingRequest(time.Hour, now), nil)

	memoryStore.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return("mem-orphan", nil)

	claimStore.EXPECT().
		ClaimAndMark(gomock.Any(), testKey, testUID, "mem-orphan").
		Return(nil, repositories.ErrAlreadyClaimed)

	memoryStore.EXPECT().
		Delete(gomock.Any(), "mem-orphan").
		Return(nil)

	auditSink.EXPECT().
		Append(gomock.Any(), models.EventClaimAlreadyUsed, testUID, "evermark", gomock.Any()).
		Times(1)

	outcome := p.ProcessClaimRequest(context.Background(), testKey, testUID, testOrigin)
	if outcome.Reason != ReasonAlreadyClaimed {
		t.Errorf("Reason = %q, want %q", outcome.Reason, ReasonAlreadyClaimed)
	}
}

func TestProcessClaimRequest_StoreFailure(t *testing.T) {
	now := time.Now()
	p, claimStore, memoryStore, _, auditSink := newTestProcessor(t, now)

	claimStore.EXPECT().
		GetByKey(gomock.Any(), testKey).
		Return(pendingRequest(time.Hour, now), nil)

	memoryStore.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return("", errors.New("write timeout"))

	auditSink.EXPECT().
		Append(gomock.Any(), models.EventClaimProcessError, testUID, "evermark", gomock.Any()).
		Do(func(_ context.Context, _, _, _ string, detail map[string]any) {
			if detail["error"] != "write timeout" {
				t.Errorf("event error = %v, want write timeout", detail["error"])
			}
		}).
		Times(1)

	outcome := p.ProcessClaimRequest(context.Background(), testKey, testUID, testOrigin)
	if outcome.Reason != ReasonStoreFailure {
		t.Errorf("Reason = %q, want %q", outcome.Reason, ReasonStoreFailure)
	}
	if outcome.Err == nil {
		t.Error("Err should carry the underlying failure")
	}
}

func TestProcessClaimRequest_LinksOrderMemory(t *testing.T) {
	now := time.Now()
	p, claimStore, memoryStore, orderStore, auditSink := newTestProcessor(t, now)

	req := pendingRequest(time.Hour, now)
	req.OrderID = "ord-1"

	claimStore.EXPECT().
		GetByKey(gomock.Any(), testKey).
		Return(req, nil)

	memoryStore.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return("mem-1", nil)

	claimStore.EXPECT().
		ClaimAndMark(gomock.Any(), testKey, testUID, "mem-1").
		Return(&models.ClaimRequest{}, nil)

	// The order must carry the new memory id so the CRM can build tag
	// payloads and refuse a second claim link.
	orderStore.EXPECT().
		AttachMemory(gomock.Any(), "ord-1", "mem-1").
		Return(nil).
		Times(1)

	auditSink.EXPECT().
		Append(gomock.Any(), models.EventClaimProcessed, testUID, "evermark", gomock.Any()).
		Do(func(_ context.Context, _, _, _ string, detail map[string]any) {
			if detail["order_id"] != "ord-1" {
				t.Errorf("event order_id = %v, want ord-1", detail["order_id"])
			}
		}).
		Times(1)

	outcome := p.ProcessClaimRequest(context.Background(), testKey, testUID, testOrigin)
	if !outcome.OK() {
		t.Fatalf("outcome not OK: reason=%q err=%v", outcome.Reason, outcome.Err)
	}
}

func TestProcessClaimRequest_OrderLinkFailureKeepsRedemption(t *testing.T) {
	now := time.Now()
	p, claimStore, memoryStore, orderStore, auditSink := newTestProcessor(t, now)

	req := pendingRequest(time.Hour, now)
	req.OrderID = "ord-1"

	claimStore.EXPECT().
		GetByKey(gomock.Any(), testKey).
		Return(req, nil)

	memoryStore.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return("mem-1", nil)

	claimStore.EXPECT().
		ClaimAndMark(gomock.Any(), testKey, testUID, "mem-1").
		Return(&models.ClaimRequest{}, nil)

	orderStore.EXPECT().
		AttachMemory(gomock.Any(), "ord-1", "mem-1").
		Return(errors.New("write timeout"))

	auditSink.EXPECT().
		Append(gomock.Any(), models.EventClaimProcessed, testUID, "evermark", gomock.Any()).
		Times(1)

	outcome := p.ProcessClaimRequest(context.Background(), testKey, testUID, testOrigin)
	if !outcome.OK() {
		t.Fatalf("outcome not OK: reason=%q err=%v", outcome.Reason, outcome.Err)
	}
}

func TestProcessClaimRequest_NotFound(t *testing.T) {
	now := time.Now()
	p, claimStore, _, _, _ := newTestProcessor(t, now)

	claimStore.EXPECT().
		GetByKey(gomock.Any(), testKey).
		Return(nil, repositories.ErrClaimNotFound)

	outcome := p.ProcessClaimRequest(context.Background(), testKey, testUID, testOrigin)
	if outcome.Reason != ReasonNotFound {
		t.Errorf("Reason = %q, want %q", outcome.Reason, ReasonNotFound)
	}
}
