package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/memoralabs/memora/memora/database/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrClaimNotFound  = errors.New("claim request not found")
	ErrAlreadyClaimed = errors.New("claim request already claimed")
)

const claimRequestCollection = "claim_requests"

type ClaimRequestRepository interface {
	GetByKey(ctx context.Context, requestKey string) (*models.ClaimRequest, error)
	Create(ctx context.Context, req *models.ClaimRequest) (string, error)
	// ClaimAndMark consumes a pending claim in one conditional update. It
	// fails with ErrAlreadyClaimed when the record is no longer pending, so
	// two concurrent redemptions can never both succeed.
	ClaimAndMark(ctx context.Context, requestKey, claimedByUID, memoryID string) (*models.ClaimRequest, error)
	MarkExpired(ctx context.Context, requestKey string) error
	CountByStatus(ctx context.Context, tenant string, status models.ClaimStatus) (int64, error)
}

type claimRequestRepository struct {
	coll *mongo.Collection
}

func NewClaimRequestRepository(db *mongo.Database) ClaimRequestRepository {
	return &claimRequestRepository{
		coll: db.Collection(claimRequestCollection),
	}
}

func (r *claimRequestRepository) GetByKey(ctx context.Context, requestKey string) (*models.ClaimRequest, error) {
	var req models.ClaimRequest
	err := r.coll.FindOne(ctx, bson.M{"request_key": requestKey}).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrClaimNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch claim request: %w", err)
	}

	req.ApplyDefaults()
	return &req, nil
}

func (r *claimRequestRepository) Create(ctx context.Context, req *models.ClaimRequest) (string, error) {
	if req.ID == "" {
		req.ID = primitive.NewObjectID().Hex()
	}
	req.ApplyDefaults()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}

	if _, err := r.coll.InsertOne(ctx, req); err != nil {
		return "", fmt.Errorf("failed to create claim request: %w", err)
	}
	return req.ID, nil
}

func (r *claimRequestRepository) ClaimAndMark(ctx context.Context, requestKey, claimedByUID, memoryID string) (*models.ClaimRequest, error) {
	now := time.Now()

	filter := bson.M{
		"request_key": requestKey,
		"status":      models.ClaimStatusPending,
	}
	update := bson.M{
		"$set": bson.M{
			"status":         models.ClaimStatusClaimed,
			"claimed_at":     now,
			"claimed_by_uid": claimedByUID,
			"memory_id":      memoryID,
		},
	}

	var updated models.ClaimRequest
	err := r.coll.FindOneAndUpdate(ctx, filter, update).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Distinguish "never existed" from "lost the race / already used".
		var existing models.ClaimRequest
		lookupErr := r.coll.FindOne(ctx, bson.M{"request_key": requestKey}).Decode(&existing)
		if errors.Is(lookupErr, mongo.ErrNoDocuments) {
			return nil, ErrClaimNotFound
		}
		if lookupErr != nil {
			return nil, fmt.Errorf("failed to look up claim request: %w", lookupErr)
		}
		return nil, ErrAlreadyClaimed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim and mark: %w", err)
	}

	updated.Status = models.ClaimStatusClaimed
	updated.ClaimedAt = &now
	updated.ClaimedBy = claimedByUID
	updated.MemoryID = memoryID
	return &updated, nil
}

func (r *claimRequestRepository) MarkExpired(ctx context.Context, requestKey string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"request_key": requestKey, "status": models.ClaimStatusPending},
		bson.M{"$set": bson.M{"status": models.ClaimStatusExpired}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark claim expired: %w", err)
	}
	return nil
}

func (r *claimRequestRepository) CountByStatus(ctx context.Context, tenant string, status models.ClaimStatus) (int64, error) {
	filter := bson.M{"status": status}
	if tenant != "" {
		filter["tenant"] = tenant
	}

	count, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count claim requests: %w", err)
	}
	return count, nil
}
