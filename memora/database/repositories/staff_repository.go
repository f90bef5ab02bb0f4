package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/memoralabs/memora/memora/database/models"
	"github.com/uptrace/bun"
)

var ErrStaffNotFound = errors.New("staff member not found")

type StaffRepository interface {
	GetByUID(ctx context.Context, uid string) (*models.Staff, error)
	GetByEmail(ctx context.Context, email string) (*models.Staff, error)
	Upsert(ctx context.Context, s *models.Staff) error
	List(ctx context.Context) ([]*models.Staff, error)
}

type staffRepository struct {
	db *bun.DB
}

func NewStaffRepository(db *bun.DB) StaffRepository {
	return &staffRepository{db: db}
}

func (r *staffRepository) GetByUID(ctx context.Context, uid string) (*models.Staff, error) {
	staff := new(models.Staff)
	err := r.db.NewSelect().
		Model(staff).
		Where("uid = ?", uid).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStaffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch staff: %w", err)
	}
	return staff, nil
}

func (r *staffRepository) GetByEmail(ctx context.Context, email string) (*models.Staff, error) {
	staff := new(models.Staff)
	err := r.db.NewSelect().
		Model(staff).
		Where("email = ?", email).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStaffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch staff by email: %w", err)
	}
	return staff, nil
}

func (r *staffRepository) Upsert(ctx context.Context, s *models.Staff) error {
	if s.UID == "" {
		s.UID = uuid.NewString()
	}
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	_, err := r.db.NewInsert().
		Model(s).
		On("CONFLICT (uid) DO UPDATE").
		Set("email = EXCLUDED.email").
		Set("display_name = EXCLUDED.display_name").
		Set("role = EXCLUDED.role").
		Set("permissions = EXCLUDED.permissions").
		Set("admin_tenant = EXCLUDED.admin_tenant").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to upsert staff: %w", err)
	}
	return nil
}

func (r *staffRepository) List(ctx context.Context) ([]*models.Staff, error) {
	var staff []*models.Staff
	err := r.db.NewSelect().
		Model(&staff).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return staff, nil
}
