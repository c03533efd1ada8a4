package domain

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleGuest     Role = "guest"
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleMember, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// Principal is any authenticatable actor. Email is stored lower-cased and
// must be unique among non-deleted principals (enforced by the DB index,
// not by a prior read).
type Principal struct {
	ID           int64  `json:"id" gorm:"primaryKey"`
	Email        string `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"size:100;not null"`
	Role         Role   `json:"role" gorm:"size:16;not null;default:member"`
	Name         string `json:"name" gorm:"size:120"`

	EmailVerified   bool       `json:"email_verified" gorm:"not null;default:false"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`

	Suspended       bool       `json:"suspended" gorm:"not null;default:false"`
	SuspendedAt     *time.Time `json:"suspended_at,omitempty"`
	SuspendedReason string     `json:"suspended_reason,omitempty" gorm:"size:255"`

	FailedLoginAttempts int        `json:"-" gorm:"not null;default:0"`
	LockedUntil         *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Principal) TableName() string { return "principals" }

// IsLocked reports whether a failed-login lockout is still in effect.
func (p *Principal) IsLocked(now time.Time) bool {
	return p.LockedUntil != nil && p.LockedUntil.After(now)
}
