package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/memoralabs/memora/memora/database/models"
	"github.com/sahilm/fuzzy"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrOrderNotFound = errors.New("order not found")

const (
	orderCollection = "orders"
	searchWindow    = 2000 // most recent orders considered by fuzzy search
)

type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Create(ctx context.Context, o *models.Order) (string, error)
	ListByTenant(ctx context.Context, tenant string, limit, offset int) ([]*models.Order, error)
	Search(ctx context.Context, tenant, query string) ([]*models.Order, error)
	AttachClaim(ctx context.Context, orderID, claimKey string) error
	AttachMemory(ctx context.Context, orderID, memoryID string) error
	SetTagSerial(ctx context.Context, orderID, tagSerial string) error
	Count(ctx context.Context, tenant string) (int64, error)
}

type orderRepository struct {
	coll *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &orderRepository{
		coll: db.Collection(orderCollection),
	}
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}

	o.ApplyDefaults()
	return &o, nil
}

func (r *orderRepository) Create(ctx context.Context, o *models.Order) (string, error) {
	if o.ID == "" {
		o.ID = primitive.NewObjectID().Hex()
	}
	o.ApplyDefaults()

	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, o); err != nil {
		return "", fmt.Errorf("failed to create order: %w", err)
	}
	return o.ID, nil
}

func (r *orderRepository) ListByTenant(ctx context.Context, tenant string, limit, offset int) ([]*models.Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.coll.Find(ctx, bson.M{"tenant": tenant}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeOrders(ctx, cursor)
}

// orderSource adapts loaded orders for fuzzy matching over customer
// name and email together.
type orderSource []*models.Order

func (s orderSource) String(i int) string {
	return strings.ToLower(s[i].CustomerName + " " + s[i].CustomerEmail)
}

func (s orderSource) Len() int { return len(s) }

func (r *orderRepository) Search(ctx context.Context, tenant, query string) ([]*models.Order, error) {
	orders, err := r.ListByTenant(ctx, tenant, searchWindow, 0)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return orders, nil
	}

	matches := fuzzy.FindFrom(query, orderSource(orders))

	results := make([]*models.Order, 0, len(matches))
	for _, match := range matches {
		results = append(results, orders[match.Index])
	}
	return results, nil
}

func (r *orderRepository) AttachClaim(ctx context.Context, orderID, claimKey string) error {
	return r.setField(ctx, orderID, "claim_key", claimKey)
}

func (r *orderRepository) AttachMemory(ctx context.Context, orderID, memoryID string) error {
	return r.setField(ctx, orderID, "memory_id", memoryID)
}

func (r *orderRepository) SetTagSerial(ctx context.Context, orderID, tagSerial string) error {
	return r.setField(ctx, orderID, "tag_serial", tagSerial)
}

func (r *orderRepository) setField(ctx context.Context, orderID, field, value string) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": orderID},
		bson.M{"$set": bson.M{field: value, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", field, err)
	}
	if result.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) Count(ctx context.Context, tenant string) (int64, error) {
	filter := bson.M{}
	if tenant != "" {
		filter["tenant"] = tenant
	}

	count, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

func decodeOrders(ctx context.Context, cursor *mongo.Cursor) ([]*models.Order, error) {
	var orders []*models.Order
	for cursor.Next(ctx) {
		var o models.Order
		if err := cursor.Decode(&o); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		o.ApplyDefaults()
		orders = append(orders, &o)
	}
	return orders, cursor.Err()
}
