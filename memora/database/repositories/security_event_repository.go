package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/memoralabs/memora/memora/database/models"
	"github.com/uptrace/bun"
)

type SecurityEventRepository interface {
	Append(ctx context.Context, event *models.SecurityEvent) error
	ListRecent(ctx context.Context, tenant string, limit int) ([]*models.SecurityEvent, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
}

type securityEventRepository struct {
	db *bun.DB
}

func NewSecurityEventRepository(db *bun.DB) SecurityEventRepository {
	return &securityEventRepository{db: db}
}

func (r *securityEventRepository) Append(ctx context.Context, event *models.SecurityEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if _, err := r.db.NewInsert().Model(event).Exec(ctx); err != nil {
		return fmt.Errorf("failed to append security event: %w", err)
	}
	return nil
}

func (r *securityEventRepository) ListRecent(ctx context.Context, tenant string, limit int) ([]*models.SecurityEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var events []*models.SecurityEvent
	query := r.db.NewSelect().
		Model(&events).
		Order("timestamp DESC").
		Limit(limit)
	if tenant != "" {
		query = query.Where("tenant = ?", tenant)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list security events: %w", err)
	}
	return events, nil
}

func (r *securityEventRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	count, err := r.db.NewSelect().
		Model((*models.SecurityEvent)(nil)).
		Where("timestamp > ?", since).
		Count(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to count security events: %w", err)
	}
	return count, nil
}
