package auth

import (
	"time"

	"authhub/internal/domain"
)

type JoinRequest struct {
	Name       string `json:"name" binding:"required,min=2"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	RememberMe bool   `json:"remember_me"`
}

type LoginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type PasswordResetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type VerifyRequestDTO struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyConfirmDTO struct {
	Token string `json:"token" binding:"required"`
}

type UpdateProfileRequest struct {
	Name string `json:"name,omitempty" binding:"omitempty,min=2"`
}

// TokenPair is the bearer credential returned to clients. Timestamps cross
// the boundary as RFC 3339 UTC strings, never raw epochs.
type TokenPair struct {
	Access           string `json:"access"`
	Refresh          string `json:"refresh"`
	ExpiredAt        string `json:"expired_at"`
	RefreshableUntil string `json:"refreshable_until"`
}

func newTokenPair(access, refresh string, accessExp, refreshExp time.Time) *TokenPair {
	return &TokenPair{
		Access:           access,
		Refresh:          refresh,
		ExpiredAt:        accessExp.UTC().Format(time.RFC3339),
		RefreshableUntil: refreshExp.UTC().Format(time.RFC3339),
	}
}

type PrincipalPublic struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
	CreatedAt     string `json:"created_at"`
}

func toPublic(p *domain.Principal) PrincipalPublic {
	return PrincipalPublic{
		ID:            p.ID,
		Email:         p.Email,
		Name:          p.Name,
		Role:          string(p.Role),
		EmailVerified: p.EmailVerified,
		CreatedAt:     p.CreatedAt.UTC().Format(time.RFC3339),
	}
}
