package repository

import (
	"context"
	"time"

	"authhub/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VerificationTokenRepository persists email-verify and password-reset
// tokens. One row per (principal, purpose): issuing a new token upserts the
// row, which implicitly invalidates the previous token because only the
// newest hash is stored.
type VerificationTokenRepository struct {
	db *gorm.DB
}

func NewVerificationTokenRepository(db *gorm.DB) *VerificationTokenRepository {
	return &VerificationTokenRepository{db: db}
}

// Upsert replaces the current token for (principal, purpose), bumping the
// resend counter and clearing any used marker.
func (r *VerificationTokenRepository) Upsert(ctx context.Context, t *domain.VerificationToken) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "principal_id"}, {Name: "purpose"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"token_hash":   t.TokenHash,
			"expires_at":   t.ExpiresAt,
			"last_sent_at": t.LastSentAt,
			"resend_count": gorm.Expr("resend_count + 1"),
			"used_at":      nil,
		}),
	}).Create(t).Error
}

func (r *VerificationTokenRepository) GetByPrincipalAndPurpose(ctx context.Context, principalID int64, purpose domain.TokenPurpose) (*domain.VerificationToken, error) {
	var t domain.VerificationToken
	err := r.db.WithContext(ctx).
		Where("principal_id = ? AND purpose = ?", principalID, purpose).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *VerificationTokenRepository) GetByHash(ctx context.Context, hash string, purpose domain.TokenPurpose) (*domain.VerificationToken, error) {
	var t domain.VerificationToken
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND purpose = ?", hash, purpose).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *VerificationTokenRepository) DeleteExpiredOrUsed(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR used_at IS NOT NULL", now).
		Delete(&domain.VerificationToken{})
	return res.RowsAffected, res.Error
}
