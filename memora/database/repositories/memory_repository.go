package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/google/uuid"
	"github.com/memoralabs/memora/memora/database/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrMemoryNotFound = errors.New("memory not found")

const (
	memoryCollection  = "memories"
	pageCacheSize     = 512
	pageCacheValidity = 5 * time.Minute
)

type MemoryRepository interface {
	Create(ctx context.Context, m *models.Memory) (string, error)
	GetByID(ctx context.Context, id string) (*models.Memory, error)
	GetByPublicPageID(ctx context.Context, pageID string) (*models.Memory, error)
	Update(ctx context.Context, m *models.Memory) error
	SetStatus(ctx context.Context, id string, status models.MemoryStatus) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerUID string) ([]*models.Memory, error)
	CountByStatus(ctx context.Context, tenant string, status models.MemoryStatus) (int64, error)
}

type memoryRepository struct {
	coll      *mongo.Collection
	pageCache *lru.Cache
}

type pageCacheEntry struct {
	memory    *models.Memory
	expiresAt time.Time
}

func NewMemoryRepository(db *mongo.Database) MemoryRepository {
	cache, _ := lru.New(pageCacheSize)
	return &memoryRepository{
		coll:      db.Collection(memoryCollection),
		pageCache: cache,
	}
}

func (r *memoryRepository) Create(ctx context.Context, m *models.Memory) (string, error) {
	if m.ID == "" {
		m.ID = primitive.NewObjectID().Hex()
	}
	if m.PublicPageID == "" {
		m.PublicPageID = uuid.NewString()
	}
	m.ApplyDefaults()

	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, m); err != nil {
		return "", fmt.Errorf("failed to create memory: %w", err)
	}
	return m.ID, nil
}

func (r *memoryRepository) GetByID(ctx context.Context, id string) (*models.Memory, error) {
	var m models.Memory
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrMemoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch memory: %w", err)
	}

	m.ApplyDefaults()
	return &m, nil
}

func (r *memoryRepository) GetByPublicPageID(ctx context.Context, pageID string) (*models.Memory, error) {
	if entry, ok := r.pageCache.Get(pageID); ok {
		cached := entry.(pageCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.memory, nil
		}
		r.pageCache.Remove(pageID)
	}

	var m models.Memory
	err := r.coll.FindOne(ctx, bson.M{"public_page_id": pageID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrMemoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch public page: %w", err)
	}

	m.ApplyDefaults()
	r.pageCache.Add(pageID, pageCacheEntry{
		memory:    &m,
		expiresAt: time.Now().Add(pageCacheValidity),
	})
	return &m, nil
}

func (r *memoryRepository) Update(ctx context.Context, m *models.Memory) error {
	m.UpdatedAt = time.Now()

	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("failed to update memory: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrMemoryNotFound
	}

	r.pageCache.Remove(m.PublicPageID)
	return nil
}

func (r *memoryRepository) SetStatus(ctx context.Context, id string, status models.MemoryStatus) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to set memory status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrMemoryNotFound
	}

	// Status flips change public visibility; drop any cached page copy.
	r.invalidateByID(ctx, id)
	return nil
}

func (r *memoryRepository) Delete(ctx context.Context, id string) error {
	r.invalidateByID(ctx, id)

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete memory: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrMemoryNotFound
	}
	return nil
}

func (r *memoryRepository) ListByOwner(ctx context.Context, ownerUID string) ([]*models.Memory, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"owner_uid": ownerUID})
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	defer cursor.Close(ctx)

	var memories []*models.Memory
	for cursor.Next(ctx) {
		var m models.Memory
		if err := cursor.Decode(&m); err != nil {
			return nil, fmt.Errorf("failed to decode memory: %w", err)
		}
		m.ApplyDefaults()
		memories = append(memories, &m)
	}
	return memories, cursor.Err()
}

func (r *memoryRepository) CountByStatus(ctx context.Context, tenant string, status models.MemoryStatus) (int64, error) {
	filter := bson.M{"status": status}
	if tenant != "" {
		filter["tenant"] = tenant
	}

	count, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count memories: %w", err)
	}
	return count, nil
}

func (r *memoryRepository) invalidateByID(ctx context.Context, id string) {
	m, err := r.GetByID(ctx, id)
	if err != nil {
		return
	}
	r.pageCache.Remove(m.PublicPageID)
}
