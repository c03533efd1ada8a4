package admin

import (
	"context"

	"authhub/internal/domain"
)

// PrincipalRepository — only the methods the admin service uses
type PrincipalRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Principal, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]any) error
	List(ctx context.Context, limit, offset int) ([]domain.Principal, int64, error)
}

// SessionRevoker lets moderation actions kill live sessions.
type SessionRevoker interface {
	RevokeAllForPrincipal(ctx context.Context, principalID int64) error
}
