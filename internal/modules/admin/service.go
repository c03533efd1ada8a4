package admin

import (
	"context"
	"errors"
	"time"

	"authhub/internal/domain"

	"gorm.io/gorm"
)

var (
	ErrPrincipalNotFound = errors.New("principal not found")
	ErrInvalidRole       = errors.New("invalid role")
)

type Service struct {
	principals PrincipalRepository
	sessions   SessionRevoker
	now        func() time.Time
}

func NewService(principals PrincipalRepository, sessions SessionRevoker) *Service {
	return &Service{
		principals: principals,
		sessions:   sessions,
		now:        time.Now,
	}
}

func (s *Service) GetPrincipal(ctx context.Context, id int64) (*domain.Principal, error) {
	principal, err := s.principals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}
	principal.PasswordHash = ""
	return principal, nil
}

func (s *Service) ListPrincipals(ctx context.Context, page, limit int) ([]domain.Principal, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	principals, total, err := s.principals.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	for i := range principals {
		principals[i].PasswordHash = ""
	}
	return principals, total, nil
}

// Suspend blocks login and refresh for the principal and revokes every live
// session so the block takes effect immediately.
func (s *Service) Suspend(ctx context.Context, id int64, reason string) error {
	if _, err := s.GetPrincipal(ctx, id); err != nil {
		return err
	}

	now := s.now().UTC()
	if err := s.principals.UpdateFields(ctx, id, map[string]any{
		"suspended":        true,
		"suspended_at":     now,
		"suspended_reason": reason,
	}); err != nil {
		return err
	}

	return s.sessions.RevokeAllForPrincipal(ctx, id)
}

// Unsuspend lifts a suspension. Sessions are not restored; the principal
// logs in again.
func (s *Service) Unsuspend(ctx context.Context, id int64) error {
	if _, err := s.GetPrincipal(ctx, id); err != nil {
		return err
	}

	return s.principals.UpdateFields(ctx, id, map[string]any{
		"suspended":        false,
		"suspended_at":     nil,
		"suspended_reason": "",
	})
}

func (s *Service) SetRole(ctx context.Context, id int64, role string) error {
	if !domain.Role(role).Valid() {
		return ErrInvalidRole
	}
	if _, err := s.GetPrincipal(ctx, id); err != nil {
		return err
	}

	return s.principals.UpdateFields(ctx, id, map[string]any{"role": role})
}
