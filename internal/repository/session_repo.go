package repository

import (
	"context"
	"time"

	"authhub/internal/domain"

	"gorm.io/gorm"
)

// SessionRepository provides DB access for refresh sessions.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SessionRepository) GetByHash(ctx context.Context, hash string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Revoke marks one session revoked. Revoking an already-revoked session is a
// no-op success (the WHERE guard matches zero rows).
func (r *SessionRepository) Revoke(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", now).Error
}

func (r *SessionRepository) RevokeAllForPrincipal(ctx context.Context, principalID int64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.Session{}).
		Where("principal_id = ? AND revoked_at IS NULL", principalID).
		Update("revoked_at", now).Error
}

// RevokeFamily kills an entire rotation chain. Used when a rotated-away
// token is replayed.
func (r *SessionRepository) RevokeFamily(ctx context.Context, familyID string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.Session{}).
		Where("family_id = ? AND revoked_at IS NULL", familyID).
		Update("revoked_at", now).Error
}

func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&domain.Session{})
	return res.RowsAffected, res.Error
}
