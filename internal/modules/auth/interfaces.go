package auth

import (
	"context"
	"time"

	"authhub/internal/domain"

	"gorm.io/gorm"
)

// PrincipalRepositoryInterface — only the methods the auth service uses
type PrincipalRepositoryInterface interface {
	Create(ctx context.Context, p *domain.Principal) error
	GetByEmail(ctx context.Context, email string) (*domain.Principal, error)
	GetByID(ctx context.Context, id int64) (*domain.Principal, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, p *domain.Principal) error
	UpdateFields(ctx context.Context, id int64, fields map[string]any) error
	DB() *gorm.DB // for multi-step transactions
}

// SessionRepositoryInterface — storage for refresh sessions
type SessionRepositoryInterface interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByHash(ctx context.Context, hash string) (*domain.Session, error)
	Revoke(ctx context.Context, id int64) error
	RevokeAllForPrincipal(ctx context.Context, principalID int64) error
	RevokeFamily(ctx context.Context, familyID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// VerificationTokenRepositoryInterface — storage for single-use tokens
type VerificationTokenRepositoryInterface interface {
	Upsert(ctx context.Context, t *domain.VerificationToken) error
	GetByPrincipalAndPurpose(ctx context.Context, principalID int64, purpose domain.TokenPurpose) (*domain.VerificationToken, error)
	GetByHash(ctx context.Context, hash string, purpose domain.TokenPurpose) (*domain.VerificationToken, error)
	DeleteExpiredOrUsed(ctx context.Context) (int64, error)
}

type jwtService interface {
	GenerateAccessToken(principalID int64, role string) (string, time.Time, error)
}
