package repository

import (
	"context"
	"strings"

	"authhub/internal/domain"

	"gorm.io/gorm"
)

// PrincipalRepository provides DB access for principals. Emails are
// normalized to lower case on the way in, so the unique index on the email
// column enforces case-insensitive uniqueness.
type PrincipalRepository struct {
	db *gorm.DB
}

func NewPrincipalRepository(db *gorm.DB) *PrincipalRepository {
	return &PrincipalRepository{db: db}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *PrincipalRepository) Create(ctx context.Context, p *domain.Principal) error {
	p.Email = NormalizeEmail(p.Email)
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PrincipalRepository) GetByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	var p domain.Principal
	err := r.db.WithContext(ctx).
		Where("email = ?", NormalizeEmail(email)).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PrincipalRepository) GetByID(ctx context.Context, id int64) (*domain.Principal, error) {
	var p domain.Principal
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PrincipalRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Principal{}).
		Where("email = ?", NormalizeEmail(email)).
		Count(&count).Error
	return count > 0, err
}

func (r *PrincipalRepository) Update(ctx context.Context, p *domain.Principal) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// UpdateFields applies a partial update without touching other columns.
func (r *PrincipalRepository) UpdateFields(ctx context.Context, id int64, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&domain.Principal{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *PrincipalRepository) List(ctx context.Context, limit, offset int) ([]domain.Principal, int64, error) {
	var (
		principals []domain.Principal
		total      int64
	)
	q := r.db.WithContext(ctx).Model(&domain.Principal{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("id").Limit(limit).Offset(offset).Find(&principals).Error
	return principals, total, err
}

// DB exposes the handle for multi-step transactions owned by services.
func (r *PrincipalRepository) DB() *gorm.DB {
	return r.db
}
